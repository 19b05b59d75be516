package access

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/casefile/internal/events"
	"github.com/JaimeStill/casefile/internal/versions"
	"github.com/JaimeStill/casefile/pkg/pagination"
)

// Guard decorates a versions.Store and refuses operations the calling
// principal's roles do not grant, returning versions.ErrPermission.
type Guard struct {
	store  versions.Store
	policy *Policy
}

// NewGuard wraps store with policy checks.
func NewGuard(store versions.Store, policy *Policy) *Guard {
	return &Guard{store: store, policy: policy}
}

func (g *Guard) check(ctx context.Context, c Capability) error {
	p, ok := FromContext(ctx)
	if !ok {
		return fmt.Errorf("%w: no authenticated principal", versions.ErrPermission)
	}
	if !g.policy.Allows(p, c) {
		return fmt.Errorf("%w: %s lacks %s capability", versions.ErrPermission, p.ID, c)
	}
	return nil
}

func (g *Guard) List(ctx context.Context, slot versions.Slot) ([]versions.Version, error) {
	if err := g.check(ctx, CapRead); err != nil {
		return nil, err
	}
	return g.store.List(ctx, slot)
}

func (g *Guard) Find(ctx context.Context, id uuid.UUID) (*versions.Version, error) {
	if err := g.check(ctx, CapRead); err != nil {
		return nil, err
	}
	return g.store.Find(ctx, id)
}

func (g *Guard) MaxNumber(ctx context.Context, slot versions.Slot) (int, error) {
	if err := g.check(ctx, CapUpload); err != nil {
		return 0, err
	}
	return g.store.MaxNumber(ctx, slot)
}

func (g *Guard) Create(ctx context.Context, cmd versions.CreateCommand) (*versions.Change, error) {
	if err := g.check(ctx, CapUpload); err != nil {
		return nil, err
	}
	return g.store.Create(ctx, cmd)
}

func (g *Guard) Delete(ctx context.Context, id uuid.UUID, expected versions.Retention) (*versions.Version, error) {
	if err := g.check(ctx, CapDelete); err != nil {
		return nil, err
	}
	return g.store.Delete(ctx, id, expected)
}

func (g *Guard) Restore(ctx context.Context, id uuid.UUID, expected versions.Retention) (*versions.Change, error) {
	if err := g.check(ctx, CapRestore); err != nil {
		return nil, err
	}
	return g.store.Restore(ctx, id, expected)
}

func (g *Guard) SetVerification(ctx context.Context, cmd versions.VerificationCommand) (*versions.Version, error) {
	if err := g.check(ctx, CapVerify); err != nil {
		return nil, err
	}
	return g.store.SetVerification(ctx, cmd)
}

// TimelineGuard requires the read capability to list a case timeline.
// Emit is not guarded: events are recorded on behalf of whoever caused them.
type TimelineGuard struct {
	events.Timeline
	guard *Guard
}

// NewTimelineGuard wraps timeline with policy checks on List.
func NewTimelineGuard(timeline events.Timeline, policy *Policy) *TimelineGuard {
	return &TimelineGuard{Timeline: timeline, guard: &Guard{policy: policy}}
}

func (g *TimelineGuard) List(ctx context.Context, filter events.Filter, page pagination.PageRequest) (pagination.PageResult[versions.Event], error) {
	if err := g.guard.check(ctx, CapRead); err != nil {
		return pagination.PageResult[versions.Event]{}, err
	}
	return g.Timeline.List(ctx, filter, page)
}
