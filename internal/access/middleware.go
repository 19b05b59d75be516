package access

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/JaimeStill/casefile/pkg/handlers"
)

// ActorHeader names the caller when authentication is disabled.
const ActorHeader = "X-Actor"

// ErrUnauthenticated is returned for missing or invalid bearer tokens.
var ErrUnauthenticated = errors.New("authentication required")

// Claims are the bearer token claims issued by the identity service.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// Authenticator resolves the principal of each request.
type Authenticator struct {
	cfg    *Config
	logger *slog.Logger
}

// NewAuthenticator creates an authenticator from cfg.
func NewAuthenticator(cfg *Config, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		cfg:    cfg,
		logger: logger.With("system", "access"),
	}
}

// Middleware attaches the principal to the request context and rejects
// requests without a valid bearer token when authentication is enabled.
func (a *Authenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := a.Authenticate(r)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="casefile"`)
				handlers.RespondError(w, a.logger, http.StatusUnauthorized, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// Authenticate resolves the principal for r.
func (a *Authenticator) Authenticate(r *http.Request) (Principal, error) {
	if !a.cfg.Enabled {
		id := strings.TrimSpace(r.Header.Get(ActorHeader))
		if id == "" {
			id = Anonymous
		}
		return Principal{ID: id, Roles: a.cfg.DevRoles}, nil
	}

	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return Principal{}, fmt.Errorf("%w: bearer token missing", ErrUnauthenticated)
	}
	return a.Parse(strings.TrimSpace(token))
}

// Parse validates a bearer token and returns its principal.
func (a *Authenticator) Parse(token string) (Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.cfg.Issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(a.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return Principal{}, fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}
	return Principal{ID: claims.Subject, Roles: claims.Roles}, nil
}

// Issue mints a token for p. The identity service issues production tokens;
// this serves local tooling and tests.
func (a *Authenticator) Issue(p Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    a.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Roles: p.Roles,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.cfg.Secret))
}
