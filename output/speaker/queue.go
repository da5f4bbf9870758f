// SPDX-License-Identifier: EPL-2.0

package speaker

// queue is a bounded byte FIFO. When full, the oldest bytes are dropped.
type queue struct {
	buf  []byte
	head int
	size int
}

func newQueue(capacity int) *queue {
	return &queue{buf: make([]byte, max(capacity, 1))}
}

func (q *queue) Len() int { return q.size }

func (q *queue) Cap() int { return len(q.buf) }

// Push appends b and reports whether an old byte had to be dropped.
func (q *queue) Push(b byte) bool {
	dropped := false
	if q.size == len(q.buf) {
		q.head = (q.head + 1) % len(q.buf)
		q.size--
		dropped = true
	}
	q.buf[(q.head+q.size)%len(q.buf)] = b
	q.size++
	return dropped
}

// Pop moves up to len(dst) bytes into dst and returns how many.
func (q *queue) Pop(dst []byte) int {
	n := min(len(dst), q.size)
	for i := range n {
		dst[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.head = (q.head + n) % len(q.buf)
	q.size -= n
	return n
}

func (q *queue) Reset() {
	q.head = 0
	q.size = 0
}
