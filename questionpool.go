package docquiz

import "sync"

// PassagePool is a FIFO of text passages waiting to be turned into content questions.
type PassagePool struct {
	mu    sync.Mutex
	queue []string
}

// NewPassagePool splits every paragraph into passages of at most maxLength bytes and
// queues them in document order. When rng is non-nil the queue is shuffled.
func NewPassagePool(paragraphs []string, maxLength int, rng Rand) *PassagePool {
	pp := &PassagePool{}
	for _, p := range paragraphs {
		pp.queue = append(pp.queue, SplitPassage(p, maxLength)...)
	}
	if rng != nil {
		rng.Shuffle(len(pp.queue), func(i, j int) { pp.queue[i], pp.queue[j] = pp.queue[j], pp.queue[i] })
	}
	return pp
}

// Add appends a passage to the pool
func (pp *PassagePool) Add(passage string) {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	pp.queue = append(pp.queue, passage)
}

// Get removes and returns the next passage; ok is false when the pool is empty.
func (pp *PassagePool) Get() (passage string, ok bool) {
	pp.mu.Lock()
	defer pp.mu.Unlock()

	if len(pp.queue) == 0 {
		return "", false
	}
	passage = pp.queue[0]
	pp.queue = pp.queue[1:]
	return passage, true
}

// Size returns the number of passages in the pool
func (pp *PassagePool) Size() int {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	return len(pp.queue)
}

// IsEmpty returns true if the pool is empty
func (pp *PassagePool) IsEmpty() bool {
	return pp.Size() == 0
}
