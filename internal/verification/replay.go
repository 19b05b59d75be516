package verification

import (
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// IdempotencyHeader carries the client's retry key.
const IdempotencyHeader = "Idempotency-Key"

// ReplayedHeader marks a response served from the replay cache.
const ReplayedHeader = "Idempotent-Replayed"

var replayHits = promauto.NewCounter(prometheus.CounterOpts{
	Name: "casefile_idempotent_replays_total",
	Help: "Responses served from the idempotency replay cache",
})

type response struct {
	status int
	body   any
}

// Replay remembers successful action responses by idempotency key so a
// client retry gets the original result instead of ErrInvalidState.
type Replay struct {
	cache *expirable.LRU[string, response]
}

// NewReplay creates a replay cache holding up to size responses for ttl.
func NewReplay(size int, ttl time.Duration) *Replay {
	return &Replay{cache: expirable.NewLRU[string, response](size, nil, ttl)}
}

// key scopes the client key to the actor and the request target.
func (r *Replay) key(req *http.Request, actor string) (string, bool) {
	if r == nil {
		return "", false
	}
	k := req.Header.Get(IdempotencyHeader)
	if k == "" {
		return "", false
	}
	return actor + "|" + req.Method + "|" + req.URL.Path + "|" + k, true
}

func (r *Replay) lookup(key string) (response, bool) {
	res, ok := r.cache.Get(key)
	if ok {
		replayHits.Inc()
	}
	return res, ok
}

func (r *Replay) store(key string, status int, body any) {
	r.cache.Add(key, response{status: status, body: body})
}

// Len returns the number of cached responses.
func (r *Replay) Len() int {
	return r.cache.Len()
}
