package quadtree

import "sync"

type task struct {
	node  int
	depth int
}

// workQueue is the FIFO shared by construction workers.
type workQueue struct {
	mu    sync.Mutex
	tasks []task
	head  int
}

func (q *workQueue) push(t task) {
	q.mu.Lock()
	q.tasks = append(q.tasks, t)
	q.mu.Unlock()
}

func (q *workQueue) pop() (task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head == len(q.tasks) {
		return task{}, false
	}
	t := q.tasks[q.head]
	q.head++
	if q.head == len(q.tasks) {
		q.tasks = q.tasks[:0]
		q.head = 0
	}
	return t, true
}

func (q *workQueue) reset() {
	q.mu.Lock()
	q.tasks = q.tasks[:0]
	q.head = 0
	q.mu.Unlock()
}
