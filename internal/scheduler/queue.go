package scheduler

import (
	"sync"

	"github.com/tgifai/eternal/internal/mission"
)

// queue is the FIFO of missions waiting for the next pass. Producers never
// block.
type queue struct {
	items []*mission.Mission
	mu    sync.Mutex
}

func (q *queue) push(m *mission.Mission) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, m)
	return len(q.items)
}

// drain takes everything queued so far. Missions pushed while the caller
// works on the batch wait for the next drain.
func (q *queue) drain() []*mission.Mission {
	q.mu.Lock()
	defer q.mu.Unlock()
	batch := q.items
	q.items = nil
	return batch
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// ring keeps the last n finished missions.
type ring struct {
	buf  []*mission.Mission
	next int
	full bool
	mu   sync.Mutex
}

func newRing(n int) *ring {
	if n <= 0 {
		n = DefaultRecentSize
	}
	return &ring{buf: make([]*mission.Mission, n)}
}

func (r *ring) add(m *mission.Mission) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = m
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
}

// list returns the missions newest first.
func (r *ring) list() []*mission.Mission {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.next
	if r.full {
		n = len(r.buf)
	}
	out := make([]*mission.Mission, 0, n)
	for i := 1; i <= n; i++ {
		idx := (r.next - i + len(r.buf)) % len(r.buf)
		out = append(out, r.buf[idx])
	}
	return out
}
