package lifecycle_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/casefile/pkg/lifecycle"
)

func TestCoordinator_ReadyAfterStartup(t *testing.T) {
	lc := lifecycle.New()

	var ran atomic.Int32
	lc.OnStartup(func() { ran.Add(1) })
	lc.OnStartup(func() { ran.Add(1) })

	assert.False(t, lc.Ready())
	lc.WaitForStartup()

	assert.True(t, lc.Ready())
	assert.Equal(t, int32(2), ran.Load())
}

func TestCoordinator_ShutdownRunsHooks(t *testing.T) {
	lc := lifecycle.New()

	var stopped atomic.Bool
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		stopped.Store(true)
	})
	lc.WaitForStartup()

	require.NoError(t, lc.Shutdown(time.Second))
	assert.True(t, stopped.Load())
	assert.False(t, lc.Ready())
}

func TestCoordinator_ShutdownTimeout(t *testing.T) {
	lc := lifecycle.New()

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	lc.OnShutdown(func() {
		<-release
	})

	err := lc.Shutdown(20 * time.Millisecond)
	assert.Error(t, err)
}
