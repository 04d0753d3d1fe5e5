// Package ocr schedules text-extraction work over two bounded pools of
// pre-initialized engine instances: a text pool and a smaller
// script/orientation-detection pool. Initialization happens once,
// asynchronously; every submission awaits readiness first.
package ocr

import (
	"context"
	"fmt"
	"sync"
)

var PoolClosedErr = fmt.Errorf("ocr pool is closed")

// TextEngine extracts text from one image file. Implementations are stateless
// per call but expensive to create, so the pool keeps them warm.
type TextEngine interface {
	Recognize(ctx context.Context, imagePath string) (text string, err error)
	Close() error
}

// ScriptDetector reports the dominant script/orientation of an image.
type ScriptDetector interface {
	DetectScript(ctx context.Context, imagePath string) (script string, err error)
	Close() error
}

// Pool owns both worker pools. A free worker is represented by its engine
// sitting in the buffered channel; taking it out claims the worker, putting it
// back frees it. That gives at-most-one job per worker and blocks submitters
// when every worker is busy.
type Pool struct {
	ready   chan struct{}
	initErr error

	text   chan TextEngine
	detect chan ScriptDetector

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// NewPool starts building textN text workers and detectN detectors in the
// background and returns immediately. Await reports the outcome.
func NewPool(textN, detectN int, newText func() (TextEngine, error), newDetect func() (ScriptDetector, error)) *Pool {
	p := &Pool{
		ready:  make(chan struct{}),
		text:   make(chan TextEngine, textN),
		detect: make(chan ScriptDetector, detectN),
	}
	go func() {
		defer close(p.ready)
		for i := 0; i < textN; i++ {
			e, err := newText()
			if err != nil {
				p.initErr = fmt.Errorf("init text worker %v: %w", i, err)
				p.teardownPartial()
				return
			}
			p.text <- e
		}
		for i := 0; i < detectN; i++ {
			d, err := newDetect()
			if err != nil {
				p.initErr = fmt.Errorf("init detect worker %v: %w", i, err)
				p.teardownPartial()
				return
			}
			p.detect <- d
		}
	}()
	return p
}

func (p *Pool) teardownPartial() {
	for {
		select {
		case e := <-p.text:
			_ = e.Close()
		case d := <-p.detect:
			_ = d.Close()
		default:
			return
		}
	}
}

// Await blocks until the pool finished initializing or ctx is done.
func (p *Pool) Await(ctx context.Context) error {
	select {
	case <-p.ready:
		return p.initErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) begin(ctx context.Context) error {
	if err := p.Await(ctx); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return PoolClosedErr
	}
	p.inflight.Add(1)
	return nil
}

// SubmitText extracts text from the image, blocking until a text worker is
// free. No job is dropped; callers queue on the worker channel.
func (p *Pool) SubmitText(ctx context.Context, imagePath string) (string, error) {
	if err := p.begin(ctx); err != nil {
		return "", err
	}
	defer p.inflight.Done()
	select {
	case w := <-p.text:
		defer func() { p.text <- w }()
		return w.Recognize(ctx, imagePath)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// SubmitDetect reports the dominant script of the image via the detection pool.
func (p *Pool) SubmitDetect(ctx context.Context, imagePath string) (string, error) {
	if err := p.begin(ctx); err != nil {
		return "", err
	}
	defer p.inflight.Done()
	select {
	case w := <-p.detect:
		defer func() { p.detect <- w }()
		return w.DetectScript(ctx, imagePath)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close refuses new submissions, waits for in-flight jobs, then terminates
// every worker in both pools.
func (p *Pool) Close() error {
	<-p.ready
	if p.initErr != nil {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		return p.initErr
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()
	p.inflight.Wait()
	var firstErr error
	for i := 0; i < cap(p.text); i++ {
		if err := (<-p.text).Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for i := 0; i < cap(p.detect); i++ {
		if err := (<-p.detect).Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
