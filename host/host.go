// Package host owns the V8 isolate: the embedding that installs
// exactly the capability surface the design permits, enforces heap and
// wall-clock limits, and recovers from limit violations by tearing
// down and rebuilding the runtime.
//
// Generalizes the teacher repo's executor.Executor (compiled-module
// cache, runtime ownership, Close) and executor.Session (lazy runtime
// construction, a single owned runtime driven through its whole
// lifetime) into one type, since ssrsandbox has no multi-language or
// multi-session requirement: one Host owns one runtime for its whole
// process lifetime, rebuilding it lazily on cold start exactly where
// Session.start rebuilds a dead WASM instance.
package host

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/caffeineduck/ssrsandbox/bootstrap"
	"github.com/caffeineduck/ssrsandbox/config"
	"github.com/caffeineduck/ssrsandbox/loader"
	"github.com/caffeineduck/ssrsandbox/metrics"
	"github.com/caffeineduck/ssrsandbox/ops"
	"github.com/caffeineduck/ssrsandbox/resolver"
	"github.com/caffeineduck/ssrsandbox/sandboxerr"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	v8 "rogchap.com/v8go"
)

// heapPollInterval is how often the heap watchdog samples
// Isolate.GetHeapStatistics(). v8go has no native near-heap-limit
// callback (unlike V8's own embedder API), so this is a polling
// approximation of the racy-by-design limit spec.md's §4.E accepts.
const heapPollInterval = 5 * time.Millisecond

// Result is the outcome of a single render.
type Result struct {
	Body    string
	Console []ops.ConsoleLine
}

// Host owns the single JS runtime and is the only component that
// manages its lifetime. Renders on a Host are strictly serial.
type Host struct {
	cfg      config.Config
	resolver *resolver.Resolver
	loader   *loader.Loader
	registry *ops.Registry
	console  *ops.Current
	ctxH     *ctxHolder
	log      zerolog.Logger

	metrics *metrics.Metrics

	mu  sync.Mutex
	iso *v8.Isolate
	ctx *v8.Context
	ms  *moduleSystem
}

// New constructs a Host bound to cfg. The runtime itself is not built
// until the first Render call (cold start). m may be nil, in which case
// renders are not instrumented (the single-shot driver never starts a
// metrics listener).
func New(cfg config.Config, m *metrics.Metrics) (*Host, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res, err := resolver.New(cfg.RootDir)
	if err != nil {
		return nil, fmt.Errorf("resolving root dir: %w", err)
	}

	console := &ops.Current{}
	registry := ops.NewRegistry()
	ops.RegisterConsole(registry, console)
	ops.RegisterCrypto(registry)
	ops.RegisterBase64(registry)
	ops.RegisterFetch(registry, ops.FetchConfig{AllowedOrigins: cfg.AllowedOrigins})

	return &Host{
		cfg:      cfg,
		resolver: res,
		loader:   loader.New(),
		registry: registry,
		console:  console,
		ctxH:     &ctxHolder{},
		log:      log.With().Str("component", "host").Logger(),
		metrics:  m,
	}, nil
}

// Render invokes the frozen render dispatcher for entry with the given
// props JSON, per spec.md §4.E's single-render algorithm.
func (h *Host) Render(ctx context.Context, entry, propsJSON string) (Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	start := time.Now()
	cold := h.iso == nil
	if err := h.ensureRuntime(); err != nil {
		h.recordOutcome(metrics.OutcomeBootstrapError, start)
		return Result{}, fmt.Errorf("%w: %v", sandboxerr.ErrBootstrapFailed, err)
	}
	if cold {
		h.log.Info().Msg("cold start")
		if h.metrics != nil {
			h.metrics.RecordColdStart()
		}
	}

	buf := ops.NewConsoleBuffer()
	h.console.Set(buf)
	defer h.console.Set(nil)

	renderCtx := ctx
	cancel := func() {}
	if h.cfg.MaxRenderTime > 0 {
		renderCtx, cancel = context.WithTimeout(ctx, h.cfg.MaxRenderTime)
	}
	defer cancel()
	h.ctxH.ctx = renderCtx

	var timedOut, heapExceeded bool
	done := make(chan struct{})
	var wg sync.WaitGroup

	if h.cfg.MaxRenderTime > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case <-renderCtx.Done():
				timedOut = true
				h.iso.TerminateExecution()
			case <-done:
			}
		}()
	}

	if h.cfg.MaxHeapBytes > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(heapPollInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if h.iso.GetHeapStatistics().UsedHeapSize >= h.cfg.MaxHeapBytes {
						heapExceeded = true
						h.iso.TerminateExecution()
						return
					}
				case <-done:
					return
				}
			}
		}()
	}

	body, renderErr := h.invoke(entry, propsJSON)
	close(done)
	wg.Wait()

	defer func() {
		h.log.Debug().Str("entry", entry).Dur("elapsed", time.Since(start)).Msg("render complete")
	}()

	switch {
	case timedOut:
		h.teardown()
		h.recordOutcome(metrics.OutcomeTimeout, start)
		return Result{}, sandboxerr.ErrTimeout
	case heapExceeded:
		h.teardown()
		h.recordOutcome(metrics.OutcomeHeapExhausted, start)
		return Result{}, sandboxerr.ErrHeapExhausted
	case renderErr != nil:
		h.recordOutcome(metrics.OutcomeRenderError, start)
		return Result{}, renderErr
	}

	h.recordOutcome(metrics.OutcomeOk, start)
	return Result{Body: body, Console: buf.Lines()}, nil
}

func (h *Host) recordOutcome(outcome string, start time.Time) {
	if h.metrics != nil {
		h.metrics.RecordRender(outcome, time.Since(start))
	}
}

// invoke calls the frozen __ssr_internal_render__ global and drives
// its promise to completion via microtask checkpoints, mirroring
// couchbase-sync_gateway's V8Runner.ResolvePromise loop. A promise left
// pending once the render context has ended (a terminated microtask
// never settles it) stops the loop with ErrTimeout.
func (h *Host) invoke(entry, propsJSON string) (string, error) {
	global := h.ctx.Global()
	fnVal, err := global.Get("__ssr_internal_render__")
	if err != nil {
		return "", fmt.Errorf("%w: %v", sandboxerr.ErrBootstrapFailed, err)
	}
	fn, err := fnVal.AsFunction()
	if err != nil {
		return "", fmt.Errorf("%w: render dispatcher is not callable", sandboxerr.ErrBootstrapFailed)
	}

	entryVal, err := v8.NewValue(h.iso, entry)
	if err != nil {
		return "", err
	}
	propsVal, err := v8.JSONParse(h.ctx, propsJSON)
	if err != nil {
		propsVal = v8.Undefined(h.iso)
	}

	result, err := fn.Call(v8.Undefined(h.iso), entryVal, propsVal)
	if err != nil {
		return "", &sandboxerr.RenderError{Message: err.Error()}
	}

	if !result.IsPromise() {
		return result.String(), nil
	}

	for {
		promise, promErr := result.AsPromise()
		if promErr != nil {
			return result.String(), nil
		}
		switch promise.State() {
		case v8.Fulfilled:
			return promise.Result().String(), nil
		case v8.Rejected:
			return "", &sandboxerr.RenderError{Message: promise.Result().DetailString()}
		default:
			h.ctx.PerformMicrotaskCheckpoint()
			if h.ctxH.ctx != nil && h.ctxH.ctx.Err() != nil {
				return "", sandboxerr.ErrTimeout
			}
		}
	}
}

// ensureRuntime lazily constructs a fresh isolate, binds the op
// surface, and runs the bootstrap script. Mirrors executor.Session's
// lazy instantiate-on-first-use, generalized to the always-reused
// runtime spec.md §5 describes (no per-request isolate).
func (h *Host) ensureRuntime() error {
	if h.iso != nil {
		return nil
	}

	iso := v8.NewIsolate()
	ctx := v8.NewContext(iso)

	if err := bindHost(iso, ctx, h.registry, h.ctxH); err != nil {
		ctx.Close()
		iso.Dispose()
		return err
	}

	ms, err := newModuleSystem(iso, ctx, h.resolver, h.loader)
	if err != nil {
		ctx.Close()
		iso.Dispose()
		return err
	}
	if err := ctx.Global().Set("__dynImport", ms.dynImport); err != nil {
		ctx.Close()
		iso.Dispose()
		return err
	}

	if _, err := ctx.RunScript(bootstrap.Script, "bootstrap.js"); err != nil {
		ctx.Close()
		iso.Dispose()
		return err
	}

	h.iso = iso
	h.ctx = ctx
	h.ms = ms
	return nil
}

// teardown discards the runtime so the next render incurs a cold
// start, per spec.md's "runtime teardown as recovery primitive".
func (h *Host) teardown() {
	if h.ctx != nil {
		h.ctx.Close()
		h.ctx = nil
	}
	if h.iso != nil {
		h.iso.Dispose()
		h.iso = nil
	}
	h.ms = nil
}

// Close releases the runtime, if any. Safe to call multiple times.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.teardown()
}
