package conceptfinder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/conceptfinder-go/internal/protocol"
)

// ErrSharedTransport indicates a single injected transport was offered to a
// pool of more than one session.
var ErrSharedTransport = errors.New("a transport serves one session: use WithTransportFactory for a pool")

// Pool runs several independent sessions and spreads single-sentence
// requests across them.
//
// Each session stays strictly serial; parallelism comes from the number of
// sessions. Because every request carries exactly one sentence, results are
// attributed to the sentence that produced them.
type Pool struct {
	log     *slog.Logger
	clients []Client

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

// NewPool starts size sessions with the given options.
// If any session fails to start, the ones already running are closed.
func NewPool(ctx context.Context, size int, opts ...Option) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool size must be at least 1, got %d", size)
	}

	options := applyOptions(opts)
	if options.Transport != nil && size > 1 {
		return nil, ErrSharedTransport
	}

	p := &Pool{
		log:     getLoggerWithComponent(options, "pool"),
		clients: make([]Client, size),
	}

	g, gCtx := errgroup.WithContext(ctx)

	for i := range p.clients {
		g.Go(func() error {
			client := NewClient()
			if err := client.Start(gCtx, opts...); err != nil {
				return fmt.Errorf("start session %d: %w", i, err)
			}

			p.clients[i] = client

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		_ = p.Close()

		return nil, err
	}

	p.log.Info("Pool started", "sessions", size)

	return p, nil
}

// Size returns the number of sessions in the pool.
func (p *Pool) Size() int {
	return len(p.clients)
}

// Healthy returns the number of sessions able to serve requests.
func (p *Pool) Healthy() int {
	n := 0

	for _, c := range p.clients {
		if c != nil && c.Healthy() {
			n++
		}
	}

	return n
}

// ExtractEach sends each sentence as its own extract request and returns
// the concepts found in each, in input order.
func (p *Pool) ExtractEach(ctx context.Context, sentences []string) ([]Concepts, error) {
	results := make([]Concepts, len(sentences))

	err := p.each(ctx, sentences, func(c Client, i int) error {
		concepts, err := c.ExtractConcepts(ctx, sentences[i:i+1])
		if err != nil {
			return err
		}

		results[i] = concepts

		return nil
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}

// EncodeEach sends each sentence as its own encode request and returns the
// engine output for each, in input order.
func (p *Pool) EncodeEach(ctx context.Context, sentences []string) ([][]string, error) {
	results := make([][]string, len(sentences))

	err := p.each(ctx, sentences, func(c Client, i int) error {
		lines, err := c.EncodeConcepts(ctx, sentences[i:i+1])
		if err != nil {
			return err
		}

		results[i] = lines

		return nil
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}

// each hands sentence indices to one worker per healthy session. The first
// failure stops the hand-out; requests already in flight on other sessions
// are allowed to finish so those sessions stay usable.
func (p *Pool) each(ctx context.Context, sentences []string, fn func(Client, int) error) error {
	if err := protocol.ValidateSentences(sentences); err != nil {
		return err
	}

	clients, err := p.sessions()
	if err != nil {
		return err
	}

	next := make(chan int)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(next)

		for i := range sentences {
			select {
			case next <- i:
			case <-gCtx.Done():
				return nil
			}
		}

		return nil
	})

	for _, c := range clients {
		g.Go(func() error {
			for i := range next {
				if err := fn(c, i); err != nil {
					return fmt.Errorf("sentence %d: %w", i, err)
				}
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	return ctx.Err()
}

// sessions returns the sessions able to take work.
func (p *Pool) sessions() ([]Client, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()

	if closed {
		return nil, ErrClientClosed
	}

	healthy := make([]Client, 0, len(p.clients))

	for _, c := range p.clients {
		if c.Healthy() {
			healthy = append(healthy, c)
		}
	}

	if len(healthy) == 0 {
		return nil, fmt.Errorf("%w: no healthy sessions in pool", ErrSessionBroken)
	}

	if len(healthy) < len(p.clients) {
		p.log.Warn("Pool running degraded", "healthy", len(healthy), "sessions", len(p.clients))
	}

	return healthy, nil
}

// Close stops every session in parallel. Safe to call multiple times.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		errs := make([]error, len(p.clients))

		var wg sync.WaitGroup

		for i, c := range p.clients {
			if c == nil {
				continue
			}

			wg.Go(func() {
				if err := c.Close(); err != nil {
					errs[i] = fmt.Errorf("close session %d: %w", i, err)
				}
			})
		}

		wg.Wait()

		p.closeErr = errors.Join(errs...)
		p.log.Info("Pool closed")
	})

	return p.closeErr
}
