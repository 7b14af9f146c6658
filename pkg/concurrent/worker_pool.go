package concurrent

import (
	"sync"
)

type Job[T any] struct {
	ID      int
	JobItem T
}

type JobFunc[T any, G any] func(job T) G

// WorkerPool numWorkers goroutine yang memproses job dari queue. Urutan hasil di CollectResults tidak dijamin.
type WorkerPool[T any, G any] struct {
	numWorkers int
	jobQueue   chan T
	results    chan G
	wg         sync.WaitGroup
}

// NewWorkerPool jobQueueSize juga jadi kapasitas channel results, jadi harus >= jumlah job kalau results baru dibaca setelah Wait.
func NewWorkerPool[T any, G any](numWorkers, jobQueueSize int) *WorkerPool[T, G] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &WorkerPool[T, G]{
		numWorkers: numWorkers,
		jobQueue:   make(chan T, jobQueueSize),
		results:    make(chan G, jobQueueSize),
	}
}

func (wp *WorkerPool[T, G]) worker(jobFunc JobFunc[T, G]) {
	defer wp.wg.Done()
	for job := range wp.jobQueue {
		wp.results <- jobFunc(job)
	}
}

func (wp *WorkerPool[T, G]) Start(jobFunc JobFunc[T, G]) {
	for i := 1; i <= wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(jobFunc)
	}
}

func (wp *WorkerPool[T, G]) AddJob(job T) {
	wp.jobQueue <- job
}

// Close tidak ada job baru lagi.
func (wp *WorkerPool[T, G]) Close() {
	close(wp.jobQueue)
}

func (wp *WorkerPool[T, G]) Wait() {
	wp.wg.Wait()
	close(wp.results)
}

func (wp *WorkerPool[T, G]) CollectResults() chan G {
	return wp.results
}

// Run helper: jalankan jobFunc untuk semua items dengan numWorkers worker dan kembalikan hasil sesuai urutan items.
func Run[T any, G any](numWorkers int, items []T, jobFunc func(idx int, item T) G) []G {
	type indexed struct {
		idx int
		res G
	}
	wp := NewWorkerPool[Job[T], indexed](numWorkers, len(items))
	for i, item := range items {
		wp.AddJob(Job[T]{ID: i, JobItem: item})
	}
	wp.Close()

	wp.Start(func(job Job[T]) indexed {
		return indexed{idx: job.ID, res: jobFunc(job.ID, job.JobItem)}
	})
	wp.Wait()

	out := make([]G, len(items))
	for r := range wp.CollectResults() {
		out[r.idx] = r.res
	}
	return out
}
