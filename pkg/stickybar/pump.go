// ABOUTME: Writer pump: the single goroutine that owns the output device
// ABOUTME: Renders one frame per chunk, refresh tick or refresh request, then the shutdown frame

package stickybar

import (
	"fmt"
	"io"
	"time"

	"github.com/mauromedda/stickybar/internal/log"
	"github.com/mauromedda/stickybar/pkg/terminal"
)

// pump serializes every write to out. It exits after the chunk channel is
// closed and the shutdown frame is written, or on the first write error.
type pump struct {
	out      io.Writer
	r        *renderer
	chunks   <-chan []byte
	refresh  <-chan struct{}
	interval time.Duration

	done chan struct{}
	err  error // valid once done is closed
}

func (p *pump) run() {
	defer close(p.done)
	defer terminal.RecoverGoroutine(p.out, &p.err)

	if err := p.write(p.r.initial()); err != nil {
		p.err = err
		return
	}

	var tick <-chan time.Time
	if p.interval > 0 {
		t := time.NewTicker(p.interval)
		defer t.Stop()
		tick = t.C
	}

	for {
		var err error
		select {
		case chunk, ok := <-p.chunks:
			if !ok {
				p.err = p.write(p.r.shutdown())
				return
			}
			err = p.write(p.r.frame(chunk))
		case <-tick:
			err = p.write(p.r.frame(nil))
		case <-p.refresh:
			err = p.write(p.r.frame(nil))
		}
		if err != nil {
			p.err = err
			return
		}
	}
}

func (p *pump) write(frame []byte) error {
	if len(frame) == 0 {
		return nil
	}
	if _, err := p.out.Write(frame); err != nil {
		log.Error("status line output failed: %v", err)
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}
