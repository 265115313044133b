// Package observability provides hooks for metrics and tracing.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. The serving process can
// register hooks at startup to receive events about applied commands,
// document writes and external reloads; libraries stay free of metrics
// framework imports.
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetEngineHooks(&myEngineHooks{})
//	    // ... run application
//	}
package observability

import (
	"context"
	"sync"
	"time"
)

// EngineHooks receives events from the editing engine.
type EngineHooks interface {
	// OnCommandApplied records an accepted command and the revision it
	// produced.
	OnCommandApplied(ctx context.Context, cmdType string, revision uint64, duration time.Duration)

	// OnCommandRejected records a rejected command with its error code.
	OnCommandRejected(ctx context.Context, cmdType string, code string)

	// OnDocumentSaved records a write of the topology file.
	OnDocumentSaved(ctx context.Context, path string, bytes int)

	// OnExternalReload records a reload triggered by an outside edit.
	OnExternalReload(ctx context.Context, path string)
}

// noopEngineHooks is the default implementation doing nothing.
type noopEngineHooks struct{}

func (noopEngineHooks) OnCommandApplied(context.Context, string, uint64, time.Duration) {}
func (noopEngineHooks) OnCommandRejected(context.Context, string, string)               {}
func (noopEngineHooks) OnDocumentSaved(context.Context, string, int)                    {}
func (noopEngineHooks) OnExternalReload(context.Context, string)                        {}

var (
	mu          sync.RWMutex
	engineHooks EngineHooks = noopEngineHooks{}
)

// SetEngineHooks registers the engine hooks implementation. Passing nil
// restores the no-op default.
func SetEngineHooks(h EngineHooks) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		engineHooks = noopEngineHooks{}
		return
	}
	engineHooks = h
}

// Engine returns the current engine hooks. Never nil.
func Engine() EngineHooks {
	mu.RLock()
	defer mu.RUnlock()
	return engineHooks
}
