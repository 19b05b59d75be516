// Package events delivers version lifecycle events to the case timeline:
// structured logs, the version_events table, and a Redis channel.
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/JaimeStill/casefile/internal/versions"
	"github.com/JaimeStill/casefile/pkg/pagination"
)

var emitted = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "casefile_events_emitted_total",
		Help: "Version events delivered per sink",
	},
	[]string{"sink", "event_type", "status"},
)

// Timeline records events and lists them per case.
type Timeline interface {
	versions.EventSink
	List(ctx context.Context, filter Filter, page pagination.PageRequest) (pagination.PageResult[versions.Event], error)
}

// fallbackPage bounds page requests that arrive without normalization.
var fallbackPage = pagination.Config{DefaultPageSize: 50, MaxPageSize: 200}

// Filter narrows a timeline query. DocumentType and VersionID are optional.
type Filter struct {
	CaseID       string
	DocumentType string
	VersionID    string
}

type namedSink struct {
	name string
	sink versions.EventSink
}

// Fanout delivers each event to every registered sink. A failing sink does
// not stop delivery to the others.
type Fanout struct {
	sinks []namedSink
}

// NewFanout creates an empty fanout.
func NewFanout() *Fanout {
	return &Fanout{}
}

// Add registers a sink under name, used as a metric label.
func (f *Fanout) Add(name string, sink versions.EventSink) *Fanout {
	f.sinks = append(f.sinks, namedSink{name: name, sink: sink})
	return f
}

func (f *Fanout) Emit(ctx context.Context, e versions.Event) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.sink.Emit(ctx, e); err != nil {
			emitted.WithLabelValues(s.name, string(e.Type), "error").Inc()
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
			continue
		}
		emitted.WithLabelValues(s.name, string(e.Type), "ok").Inc()
	}
	return errors.Join(errs...)
}

// LogSink writes every event as a structured log record.
func LogSink(logger *slog.Logger) versions.EventSink {
	logger = logger.With("system", "events")
	return versions.EventSinkFunc(func(ctx context.Context, e versions.Event) error {
		logger.InfoContext(ctx, "version event",
			"event_type", e.Type,
			"version_id", e.VersionID,
			"slot", e.Slot.String(),
			"actor", e.Actor,
			"from", e.From,
			"to", e.To,
		)
		return nil
	})
}
