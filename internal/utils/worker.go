package utils

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const (
	TASK_CHAN_SIZE = 100
)

var (
	ErrPoolClosed = errors.New("worker pool closed")
)

type WorkerFunction = func(t *tomb.Tomb, task any) error
type WorkerPool struct {
	n         int      // number of workers
	tasks     chan any // task queue
	closeOnce sync.Once
}

func NewWorkerPool(size uint) *WorkerPool {
	if size == 0 {
		size = 1
	}
	return &WorkerPool{
		n:     int(size),
		tasks: make(chan any, TASK_CHAN_SIZE),
	}
}

func (pool *WorkerPool) Size() int {
	return pool.n
}

// Setup starts the workers under t. They exit once the task queue is closed
// and drained, or when t starts dying.
func (pool *WorkerPool) Setup(t *tomb.Tomb, work WorkerFunction) {
	// Spawn from inside a tracked goroutine so the tomb cannot reach zero
	// live goroutines before every worker is started.
	t.Go(func() error {
		for id := 0; id < pool.n; id++ {
			t.Go(func() error {
				return pool.worker(t, id, work)
			})
		}
		return nil
	})
}

// AddTask blocks until the task is queued or t starts dying. It must not be
// called after Close.
func (pool *WorkerPool) AddTask(t *tomb.Tomb, task any) error {
	select {
	case <-t.Dying():
		return ErrPoolClosed
	case pool.tasks <- task:
		return nil
	}
}

// Close stops accepting tasks. Queued tasks are still worked off.
func (pool *WorkerPool) Close() {
	pool.closeOnce.Do(func() {
		close(pool.tasks)
	})
}

// Workers wait on tasks in the task queue and action them.
func (pool *WorkerPool) worker(t *tomb.Tomb, id int, work WorkerFunction) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task, ok := <-pool.tasks:
			if !ok {
				return nil
			}
			if err := work(t, task); err != nil {
				log.Error().Err(err).Int("id", id).Msg("worker exiting")
				return err
			}
		}
	}
}
