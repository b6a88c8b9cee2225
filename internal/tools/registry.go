package tools

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/MKhiriev/go-proc-box/internal/app"
	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/internal/utils"
	"github.com/MKhiriev/go-proc-box/models"
)

// Registry indexes tools by name and by accepted content type.
// Its tool set is immutable after [NewRegistry] returns and it is safe for
// concurrent use.
type Registry struct {
	byName       map[string]Tool
	order        []string            // registration order
	multipurpose []string            // names of tools accepting anything
	byType       map[string][]string // content type -> tool names

	abandoned atomic.Int64
}

const (
	runPending int32 = iota
	runFinished
	runAbandoned
)

// NewRegistry registers every tool of every provider, in order.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]Tool),
		byType: make(map[string][]string),
	}

	for _, p := range providers {
		for _, t := range p.Tools() {
			if err := r.register(t); err != nil {
				return nil, err
			}
		}
	}

	return r, nil
}

func (r *Registry) register(t Tool) error {
	if t == nil || t.Name() == "" {
		return ErrInvalidTool
	}
	name := t.Name()
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateTool, name)
	}

	r.byName[name] = t
	r.order = append(r.order, name)

	types := t.ProcessableTypes()
	if len(types) == 0 {
		r.multipurpose = append(r.multipurpose, name)
		return nil
	}
	for _, ct := range types {
		ct = utils.NormalizeContentType(ct)
		if !slices.Contains(r.byType[ct], name) {
			r.byType[ct] = append(r.byType[ct], name)
		}
	}
	return nil
}

// GetAvailableTools returns the multipurpose tools plus the tools accepting
// contentType, without duplicates, in registration order.
func (r *Registry) GetAvailableTools(contentType string) []models.ToolDescriptor {
	matching := r.byType[utils.NormalizeContentType(contentType)]

	out := make([]models.ToolDescriptor, 0, len(r.multipurpose)+len(matching))
	for _, name := range r.order {
		if slices.Contains(r.multipurpose, name) || slices.Contains(matching, name) {
			out = append(out, Describe(r.byName[name]))
		}
	}
	return out
}

// GetTool resolves a registered tool.
func (r *Registry) GetTool(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Descriptors lists every registered tool in registration order.
func (r *Registry) Descriptors() []models.ToolDescriptor {
	out := make([]models.ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, Describe(r.byName[name]))
	}
	return out
}

// Invoke runs the named tool bounded by timeout (no bound when timeout <= 0).
// A tool that outlives the timeout keeps running in its goroutine, but its
// result is discarded and [ErrToolTimeout] is returned. Such runs are logged
// through the context logger and counted by [Registry.Abandoned] until they
// return. Tool errors are wrapped in [app.ErrToolFailure].
func (r *Registry) Invoke(ctx context.Context, name string, content []byte, contentType string, timeout time.Duration) (models.ToolOutput, error) {
	t, ok := r.GetTool(name)
	if !ok {
		return models.ToolOutput{}, fmt.Errorf("%w: %q", app.ErrToolNotFound, name)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		out models.ToolOutput
		err error
	}
	done := make(chan result, 1)
	log := logger.FromContext(ctx).WithStr("tool", name)
	started := time.Now()
	var state atomic.Int32

	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- result{err: fmt.Errorf("%w: %s: %v", ErrToolPanicked, name, p)}
			}
			if !state.CompareAndSwap(runPending, runFinished) {
				r.abandoned.Add(-1)
				log.Info().Dur("took", time.Since(started)).Msg("abandoned tool run returned")
			}
		}()
		out, err := t.ProcessFile(ctx, content, contentType)
		done <- result{out: out, err: err}
	}()

	select {
	case <-ctx.Done():
		if state.CompareAndSwap(runPending, runAbandoned) {
			running := r.abandoned.Add(1)
			log.Warn().Err(ctx.Err()).Int64("abandoned_runs", running).Msg("tool still running after timeout, result will be discarded")
		}
		return models.ToolOutput{}, fmt.Errorf("%w: %s: %w", ErrToolTimeout, name, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return models.ToolOutput{}, fmt.Errorf("%w: %s: %w", app.ErrToolFailure, name, res.err)
		}
		if res.out.ContentType == "" {
			res.out.ContentType = utils.DefaultContentType
		}
		return res.out, nil
	}
}

// Abandoned reports how many tool runs outlived their timeout and have not
// returned yet.
func (r *Registry) Abandoned() int64 {
	return r.abandoned.Load()
}
