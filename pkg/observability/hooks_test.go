package observability

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	r := NoopResolveHooks{}
	r.OnInspectStart(ctx, "app.exe")
	r.OnInspectComplete(ctx, "app.exe", 3, time.Second, nil)
	r.OnResolve(ctx, "libfoo.dll", "/opt/bin/libfoo.dll")
	r.OnResolve(ctx, "libbar.dll", "")
	r.OnCopy(ctx, "/opt/bin/libfoo.dll", "out/libfoo.dll", 1024)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "inspect")
	c.OnCacheMiss(ctx, "inspect")
	c.OnCacheSet(ctx, "inspect", 64)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	assert.IsType(t, NoopResolveHooks{}, Resolve())
	assert.IsType(t, NoopCacheHooks{}, Cache())

	customResolve := &testResolveHooks{}
	SetResolveHooks(customResolve)
	assert.Same(t, customResolve, Resolve())

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	assert.Same(t, customCache, Cache())

	// nil is ignored
	SetResolveHooks(nil)
	SetCacheHooks(nil)
	assert.Same(t, customResolve, Resolve())
	assert.Same(t, customCache, Cache())

	Reset()
	assert.IsType(t, NoopResolveHooks{}, Resolve())
	assert.IsType(t, NoopCacheHooks{}, Cache())
}

func TestHooksReceiveEvents(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	h := &testResolveHooks{}
	SetResolveHooks(h)

	ctx := context.Background()
	Resolve().OnInspectStart(ctx, "a.exe")
	Resolve().OnResolve(ctx, "b.dll", "")

	assert.Equal(t, 1, h.inspects)
	assert.Equal(t, []string{"b.dll"}, h.missing)
}

func TestConcurrentHookAccess(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetCacheHooks(&testCacheHooks{})
		}()
		go func() {
			defer wg.Done()
			Cache().OnCacheHit(context.Background(), "inspect")
		}()
	}
	wg.Wait()
}

type testResolveHooks struct {
	NoopResolveHooks
	inspects int
	missing  []string
}

func (h *testResolveHooks) OnInspectStart(context.Context, string) { h.inspects++ }
func (h *testResolveHooks) OnResolve(_ context.Context, name, path string) {
	if path == "" {
		h.missing = append(h.missing, name)
	}
}

type testCacheHooks struct {
	NoopCacheHooks
}
