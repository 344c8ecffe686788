package words

import "sync"

// Store is an append-only ordered collection of words shared by every
// in-flight request. The zero value is ready to use.
type Store struct {
	mu    sync.Mutex
	words []string
}

func NewStore() *Store {
	return &Store{}
}

// Append adds words to the end of the store in the given order. The whole
// batch is inserted under one lock hold, so concurrent appends never
// interleave their elements.
func (s *Store) Append(words ...string) {
	if len(words) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.words = append(s.words, words...)
}

// Snapshot returns a copy of the current contents in insertion order.
func (s *Store) Snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.words))
	copy(out, s.words)
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.words)
}
