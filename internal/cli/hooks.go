package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// logHooks reports resolution and cache events as debug log lines.
// Installed by --verbose.
type logHooks struct {
	logger *log.Logger
}

func (h *logHooks) OnInspectStart(_ context.Context, path string) {
	h.logger.Debug("inspecting", "file", path)
}

func (h *logHooks) OnInspectComplete(_ context.Context, path string, depCount int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("inspection failed", "file", path, "err", err, "duration", d.Round(time.Millisecond))
		return
	}
	h.logger.Debug("inspected", "file", path, "deps", depCount, "duration", d.Round(time.Millisecond))
}

func (h *logHooks) OnResolve(_ context.Context, name, path string) {
	if path == "" {
		h.logger.Debug("not on search path", "name", name)
		return
	}
	h.logger.Debug("found", "name", name, "path", path)
}

func (h *logHooks) OnCopy(_ context.Context, from, to string, size int64) {
	h.logger.Debug("copy", "from", from, "to", to, "bytes", size)
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}
