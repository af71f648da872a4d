// Package queue provides the min-heap used to merge sorted k-mer runs.
package queue

// Item is the head of one sorted source.
type Item struct {
	Key    uint64 // Key is the packed k-mer.
	Count  uint32
	Source int // Source is the index of the run the key came from.
}

// MergeQueue is a min-heap ordered by Key, then Source. Ties on Source keep
// merges deterministic.
type MergeQueue struct {
	items []Item
}

// New returns an empty queue sized for capacity sources.
func New(capacity int) *MergeQueue {
	return &MergeQueue{items: make([]Item, 0, capacity)}
}

// Len returns the number of queued items.
func (q *MergeQueue) Len() int { return len(q.items) }

// Top returns the smallest item.
func (q *MergeQueue) Top() (Item, bool) {
	if len(q.items) == 0 {
		return Item{}, false
	}
	return q.items[0], true
}

// Push inserts an item.
func (q *MergeQueue) Push(it Item) {
	q.items = append(q.items, it)
	q.siftUp(len(q.items) - 1)
}

// Pop removes and returns the smallest item.
func (q *MergeQueue) Pop() (Item, bool) {
	n := len(q.items)
	if n == 0 {
		return Item{}, false
	}
	root := q.items[0]
	q.items[0] = q.items[n-1]
	q.items = q.items[:n-1]
	if len(q.items) > 0 {
		q.siftDown(0)
	}
	return root, true
}

// ReplaceTop swaps the smallest item for it. It is cheaper than Pop
// followed by Push when a source advances.
func (q *MergeQueue) ReplaceTop(it Item) {
	if len(q.items) == 0 {
		q.Push(it)
		return
	}
	q.items[0] = it
	q.siftDown(0)
}

// Reset clears the queue for reuse.
func (q *MergeQueue) Reset() { q.items = q.items[:0] }

func (q *MergeQueue) less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.Key != b.Key {
		return a.Key < b.Key
	}
	return a.Source < b.Source
}

func (q *MergeQueue) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !q.less(i, p) {
			return
		}
		q.items[i], q.items[p] = q.items[p], q.items[i]
		i = p
	}
}

func (q *MergeQueue) siftDown(i int) {
	n := len(q.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && q.less(r, l) {
			best = r
		}
		if !q.less(best, i) {
			return
		}
		q.items[i], q.items[best] = q.items[best], q.items[i]
		i = best
	}
}
