// Package store is the data layer: the whole dataset lives in one JSON
// document on disk, cached in memory, and every mutation goes through a
// single write queue.
//
// READS AND WRITES:
// Reads never touch the disk. They copy out of the cached document, which is
// an immutable snapshot published through an atomic pointer.
//
// Writes are queued. The queue has exactly one worker, so mutations run one
// at a time in submission order. Each queued unit:
//  1. reloads the document from disk,
//  2. applies its mutation to that fresh copy,
//  3. saves the full document (temp file + rename),
//  4. publishes the copy as the new cache,
//  5. hands its result back to the caller.
//
// A unit that fails at any step publishes nothing, so neither the file nor
// the cache ever holds a half-applied mutation.
//
// CHECK-THEN-INSERT:
// Anything of the form "fail if X already exists, otherwise insert" (duplicate
// votes, duplicate emails) is only correct inside the queue. The same check
// against the read cache would race with an in-flight write.
//
// SINGLE PROCESS:
// The queue serialises writers inside one process. Two processes pointed at
// the same file are not coordinated.
package store

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/sakif/queridometro/internal/metrics"
	"github.com/sakif/queridometro/internal/model"
	"github.com/sakif/queridometro/internal/repository"
)

// compile-time checks that *Store implements every repository interface
var (
	_ repository.UserRepository        = (*Store)(nil)
	_ repository.ParticipantRepository = (*Store)(nil)
	_ repository.VoteRepository        = (*Store)(nil)
	_ repository.EmojiRepository       = (*Store)(nil)
	_ repository.ConfigRepository      = (*Store)(nil)
)

// ErrClosed is returned by mutations submitted after Close.
var ErrClosed = errors.New("store: closed")

// PasswordHasher hashes the seeded administrator password.
// auth.PasswordService satisfies it.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

// Options configures a Store.
type Options struct {
	// Path is the JSON document location. Parent directories are created.
	Path string
	// Hasher is required: bootstrap may need to seed the administrator.
	Hasher PasswordHasher
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Metrics is optional.
	Metrics *metrics.Metrics
	// QueueSize bounds the number of mutations waiting for the worker.
	// Submitters block once it is full. Defaults to 64.
	QueueSize int
}

// Store is the Durable Store plus the Data Access Layer.
type Store struct {
	path    string
	hasher  PasswordHasher
	logger  *slog.Logger
	metrics *metrics.Metrics

	cache atomic.Pointer[model.Document]
	queue *writeQueue
}

// New loads the document (seeding it if needed) and starts the write worker.
// Call Close when done.
func New(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, errors.New("store: path is required")
	}
	if opts.Hasher == nil {
		return nil, errors.New("store: password hasher is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}

	s := &Store{
		path:    opts.Path,
		hasher:  opts.Hasher,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	s.cache.Store(doc)

	s.queue = newWriteQueue(opts.QueueSize, opts.Logger, opts.Metrics)
	s.queue.start()

	s.logger.Info("store opened",
		slog.String("path", s.path),
		slog.Int("users", len(doc.Users)),
		slog.Int("participants", len(doc.Participants)),
		slog.Int("votes", len(doc.Votes)),
	)
	return s, nil
}

// Close waits for queued mutations to finish and stops the worker.
func (s *Store) Close() error {
	s.queue.stop()
	return nil
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

// Snapshot returns a deep copy of the cached document.
func (s *Store) Snapshot() *model.Document {
	return s.doc().Clone()
}

func (s *Store) doc() *model.Document {
	return s.cache.Load()
}

// write queues fn and waits for it. fn gets a freshly loaded document it may
// mutate freely; its result is returned only if the save succeeded.
//
// ctx is honoured while waiting for a queue slot. Once queued, the unit runs
// to completion and the caller always gets its outcome.
func write[T any](ctx context.Context, s *Store, op string, fn func(doc *model.Document) (T, error)) (T, error) {
	var result T
	err := s.queue.submit(ctx, op, func() error {
		doc, err := s.load()
		if err != nil {
			return err
		}
		r, err := fn(doc)
		if err != nil {
			return err
		}
		if err := s.save(doc); err != nil {
			return err
		}
		s.cache.Store(doc)
		result = r
		return nil
	})
	return result, err
}

// nextID is max(id)+1 within one collection, or 1 when it is empty.
func nextID[T any](items []T, id func(T) int) int {
	max := 0
	for _, it := range items {
		if v := id(it); v > max {
			max = v
		}
	}
	return max + 1
}
