package cmd

import (
	"sync"
	"time"

	"github.com/nextlevelbuilder/hookgate/internal/cache"
	"github.com/nextlevelbuilder/hookgate/internal/telemetry"
	"github.com/nextlevelbuilder/hookgate/pkg/protocol"
)

func defaultCacheDir() (string, error) {
	return cache.DefaultDir()
}

// cacheRegistry builds the full cache family for one session plus the
// statusline buffer, registering the latter into the returned registry
// so Registry.InvalidateAll still wipes it.
func cacheRegistry(dir, sessionID string) (*cache.Registry, *cache.AckCache, *cache.DenialCache, *cache.RewindCache, *cache.PendingValidationCache, *cache.StrictModeCache) {
	registry, ack, denial, rewind, pending, strict := cache.NewRegistry(dir, sessionID)
	statusline := cache.NewStatuslineBuffer(dir)
	statusline.SetSession(sessionID)
	registry.Add(statusline)
	return registry, ack, denial, rewind, pending, strict
}

// cachePendingOnly is used by the detached async-validate child, which
// only ever needs to write the pending-validation cache, not the rest
// of the session's cache family.
func cachePendingOnly(dir, sessionID string) *cache.PendingValidationCache {
	pending := cache.NewPendingValidationCache(dir)
	pending.SetSession(sessionID)
	return pending
}

func cacheStatuslineOnly(dir, sessionID string) *cache.StatuslineBuffer {
	buf := cache.NewStatuslineBuffer(dir)
	buf.SetSession(sessionID)
	return buf
}

func statuslineEntryFrom(in protocol.HookInput, out protocol.HookOutput, latency time.Duration) cache.StatuslineEntry {
	return cache.StatuslineEntry{
		Agent:         "hookgate",
		Decision:      string(out.HookSpecificOutput.PermissionDecision),
		ToolName:      in.ToolName,
		ExecutionType: "sync",
		LatencyMs:     latency.Milliseconds(),
		Timestamp:     time.Now(),
	}
}

var metricsOnce sync.Once
var metrics *telemetry.Metrics

func sharedMetrics() *telemetry.Metrics {
	metricsOnce.Do(func() { metrics = telemetry.NewMetrics() })
	return metrics
}
