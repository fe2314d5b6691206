package inference

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/tgifai/eternal/internal/pkg/logs"
)

const DefaultAsyncWorkers = 4

type Options struct {
	CacheSize int
	// Async makes Submit return while the completion is still running. The
	// receipt reads as executing until a background worker commits it.
	Async        bool
	AsyncWorkers int
}

// Service owns the result cache shared by every client and, in async mode,
// the pool that resolves submissions in the background.
type Service struct {
	cache *Cache
	async bool
	sem   chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewService(opts Options) *Service {
	workers := opts.AsyncWorkers
	if workers <= 0 {
		workers = DefaultAsyncWorkers
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		cache:  NewCache(opts.CacheSize),
		async:  opts.Async,
		sem:    make(chan struct{}, workers),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Service) Async() bool {
	return s.async
}

func (s *Service) Cache() *Cache {
	return s.cache
}

// Get never blocks. Unknown or evicted receipts yield ErrReceiptNotFound.
func (s *Service) Get(id string) (Result, error) {
	r, ok := s.cache.Get(id)
	if !ok {
		return Result{}, receiptNotFound(id)
	}
	return r, nil
}

// Close stops accepting background work and waits for in-flight resolutions
// until ctx expires.
func (s *Service) Close(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newReceipt() string {
	return uuid.NewString()
}

// dispatch resolves fn in the background, bounded by the worker pool. The
// receipt must already be committed as executing.
func (s *Service) dispatch(ctx context.Context, id string, fn func(ctx context.Context) Result) {
	runCtx := logs.SetLogID(s.ctx, logs.GetLogID(ctx))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case s.sem <- struct{}{}:
		case <-runCtx.Done():
			s.cache.Commit(Result{ID: id, State: StateError, Error: runCtx.Err().Error()})
			return
		}
		defer func() { <-s.sem }()

		s.cache.Commit(fn(runCtx))
	}()
}
