// SPDX-License-Identifier: MIT
package render

import (
	"context"
	"fmt"
	"time"

	applog "wavbeep/internal/log"
	"wavbeep/internal/tone"
	"wavbeep/internal/transport"

	"github.com/google/uuid"
)

// Publisher sends every event of a sequence over a transport, tagged with
// a run id. With Pace set it waits each event's duration before sending
// the next, so a remote tone generator can play the events as they arrive.
type Publisher struct {
	Transport transport.Transport
	Run       uuid.UUID // Generated per Render when zero.
	Pace      bool

	after func(time.Duration) <-chan time.Time
}

// Name implements Namer.
func (p *Publisher) Name() string { return "publish" }

func (p *Publisher) Render(seq tone.Sequence) error {
	return p.RenderContext(context.Background(), seq)
}

// RenderContext publishes seq, stopping between events once ctx is done.
func (p *Publisher) RenderContext(ctx context.Context, seq tone.Sequence) error {
	run := p.Run
	if run == uuid.Nil {
		run = uuid.New()
	}
	after := p.after
	if after == nil {
		after = time.After
	}

	count := uint32(len(seq))
	for i, e := range seq {
		msg := transport.Message{Run: run, Seq: uint32(i), Count: count, Event: e}
		if err := p.Transport.Send(msg); err != nil {
			return fmt.Errorf("event %d/%d: %w", i+1, count, err)
		}
		if !p.Pace || i == len(seq)-1 {
			continue
		}
		select {
		case <-after(e.Duration()):
		case <-ctx.Done():
			return fmt.Errorf("paced publishing stopped after event %d/%d: %w", i+1, count, ctx.Err())
		}
	}

	applog.Debugf("Publisher: Sent %d events for run %s", count, run)
	return nil
}
