// SPDX-License-Identifier: MIT
/*
Package render turns a tone sequence into its outward representations: a
beep(1) invocation, Arduino tone() source, a WAV preview, or a stream of
published events. Each one is a Renderer, so the analysis never touches a
process, file or socket directly.
*/
package render

import (
	"context"
	"fmt"

	"wavbeep/internal/tone"
)

// Renderer emits a finished tone sequence somewhere.
type Renderer interface {
	Render(seq tone.Sequence) error
}

// ContextRenderer is implemented by renderers that block for the length of
// the sequence and stop early when ctx is cancelled.
type ContextRenderer interface {
	RenderContext(ctx context.Context, seq tone.Sequence) error
}

// RenderContext renders seq with r, passing ctx through when r supports it.
// Renderers that do not are only started while ctx is live.
func RenderContext(ctx context.Context, r Renderer, seq tone.Sequence) error {
	if cr, ok := r.(ContextRenderer); ok {
		return cr.RenderContext(ctx, seq)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.Render(seq)
}

// Namer is implemented by renderers that want a stable name in errors and
// metrics labels.
type Namer interface {
	Name() string
}

// Name returns r's Name() if it has one, its dynamic type otherwise.
func Name(r Renderer) string {
	if n, ok := r.(Namer); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", r)
}

// Error records which renderer failed.
type Error struct {
	Renderer string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s renderer: %v", e.Renderer, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Multi renders with each renderer in order and stops at the first failure,
// which is returned as an *Error.
type Multi []Renderer

func (m Multi) Render(seq tone.Sequence) error {
	return m.RenderContext(context.Background(), seq)
}

// RenderContext is Render with cancellation.
func (m Multi) RenderContext(ctx context.Context, seq tone.Sequence) error {
	for _, r := range m {
		if err := RenderContext(ctx, r, seq); err != nil {
			return &Error{Renderer: Name(r), Err: err}
		}
	}
	return nil
}
