// Package verification moves versions along the verification axis and
// exposes the version actions reviewers perform.
package verification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/casefile/internal/versions"
)

// maxReasonLength bounds rejection reasons.
const maxReasonLength = 2000

// System is the reviewer-facing set of version actions.
type System interface {
	Verify(ctx context.Context, id uuid.UUID, actor string) (*versions.Version, error)
	Reject(ctx context.Context, id uuid.UUID, actor, reason string) (*versions.Version, error)
	Delete(ctx context.Context, id uuid.UUID, actor string) (*versions.Version, error)
	Restore(ctx context.Context, id uuid.UUID, actor string) (*versions.Change, error)
}

// Workflow implements pending → verified and pending → rejected. Both
// targets are terminal. Retention is never touched here; delete and restore
// go through the state machine unchanged.
//
// The workflow does not check capabilities. A guarded store reports
// ErrPermission and the workflow returns it as-is.
type Workflow struct {
	machine versions.System
	store   versions.Store
	events  versions.EventSink
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// Option customizes a Workflow.
type Option func(*Workflow)

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// WithEvents sets the sink that receives verification events.
func WithEvents(sink versions.EventSink) Option {
	return func(w *Workflow) { w.events = sink }
}

// New creates a verification workflow.
func New(machine versions.System, store versions.Store, timeout time.Duration, logger *slog.Logger, opts ...Option) *Workflow {
	w := &Workflow{
		machine: machine,
		store:   store,
		events:  versions.NopSink,
		timeout: timeout,
		logger:  logger.With("system", "verification"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Workflow) Verify(ctx context.Context, id uuid.UUID, actor string) (*versions.Version, error) {
	return w.transition(ctx, id, actor, versions.VerificationVerified, "")
}

// Reject requires a non-blank reason. The rejected version stays rejected;
// a corrected document needs a new upload.
func (w *Workflow) Reject(ctx context.Context, id uuid.UUID, actor, reason string) (*versions.Version, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason required", versions.ErrValidation)
	}
	if len(reason) > maxReasonLength {
		return nil, fmt.Errorf("%w: rejection reason exceeds %d characters", versions.ErrValidation, maxReasonLength)
	}
	return w.transition(ctx, id, actor, versions.VerificationRejected, reason)
}

func (w *Workflow) Delete(ctx context.Context, id uuid.UUID, actor string) (*versions.Version, error) {
	v, err := w.machine.Delete(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	transitionsTotal.WithLabelValues("delete").Inc()
	return v, nil
}

func (w *Workflow) Restore(ctx context.Context, id uuid.UUID, actor string) (*versions.Change, error) {
	change, err := w.machine.Restore(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	transitionsTotal.WithLabelValues("restore").Inc()
	return change, nil
}

func (w *Workflow) transition(ctx context.Context, id uuid.UUID, actor string, to versions.Verification, reason string) (*versions.Version, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, fmt.Errorf("%w: actor required", versions.ErrValidation)
	}

	current, err := w.machine.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Retention == versions.RetentionDeleted {
		return nil, fmt.Errorf("%w: version %s is deleted", versions.ErrInvalidState, id)
	}
	if current.Verification.Terminal() {
		return nil, fmt.Errorf("%w: version %s is already %s", versions.ErrInvalidState, id, current.Verification)
	}

	var v *versions.Version
	err = w.call(ctx, func(ctx context.Context) (err error) {
		v, err = w.store.SetVerification(ctx, versions.VerificationCommand{
			ID:       id,
			Expected: current.Verification,
			Status:   to,
			Reason:   reason,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	eventType := versions.EventVerified
	if to == versions.VerificationRejected {
		eventType = versions.EventRejected
	}

	w.logger.Info("verification changed",
		"slot", v.Slot.String(),
		"id", v.ID,
		"from", current.Verification,
		"to", to,
		"actor", actor,
	)
	transitionsTotal.WithLabelValues(string(to)).Inc()

	e := versions.NewEvent(eventType, v, actor, string(current.Verification), string(to), w.now())
	e.Metadata["retention"] = string(v.Retention)
	if reason != "" {
		e.Metadata["reason"] = reason
	}
	if err := w.events.Emit(context.WithoutCancel(ctx), e); err != nil {
		w.logger.Error("event emission failed", "event", e.Type, "version_id", e.VersionID, "error", err)
	}

	return v, nil
}

func (w *Workflow) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	err := fn(ctx)
	if err != nil && ctx.Err() != nil && !versions.IsDomainError(err) {
		return versions.ContextError(ctx.Err())
	}
	return err
}
