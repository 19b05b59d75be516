package events

import (
	"context"
	"slices"
	"sync"

	"github.com/JaimeStill/casefile/internal/versions"
	"github.com/JaimeStill/casefile/pkg/pagination"
)

type memoryTimeline struct {
	mu     sync.RWMutex
	events []versions.Event
}

// NewMemoryTimeline creates a process-local Timeline.
func NewMemoryTimeline() Timeline {
	return &memoryTimeline{}
}

func (t *memoryTimeline) Emit(ctx context.Context, e versions.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, e)
	return nil
}

func (t *memoryTimeline) List(ctx context.Context, filter Filter, page pagination.PageRequest) (pagination.PageResult[versions.Event], error) {
	page.Normalize(fallbackPage)

	t.mu.RLock()
	var matched []versions.Event
	for _, e := range slices.Backward(t.events) {
		if filter.matches(e) {
			matched = append(matched, e)
		}
	}
	t.mu.RUnlock()

	start := min(page.Offset(), len(matched))
	end := min(start+page.PageSize, len(matched))
	return pagination.NewPageResult(matched[start:end], len(matched), page.Page, page.PageSize), nil
}

func (f Filter) matches(e versions.Event) bool {
	if e.Slot.CaseID != f.CaseID {
		return false
	}
	if f.DocumentType != "" && e.Slot.DocumentType != f.DocumentType {
		return false
	}
	if f.VersionID != "" && e.VersionID.String() != f.VersionID {
		return false
	}
	return true
}
