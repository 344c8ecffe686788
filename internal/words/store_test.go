package words

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestStoreAppendSnapshot(t *testing.T) {
	s := NewStore()
	assert.Empty(t, s.Snapshot())

	s.Append("foo", "bar")
	s.Append()
	s.Append("baz")
	assert.Equal(t, []string{"foo", "bar", "baz"}, s.Snapshot())
	assert.Equal(t, 3, s.Len())

	// Snapshot is a copy
	snap := s.Snapshot()
	snap[0] = "changed"
	assert.Equal(t, "foo", s.Snapshot()[0])
}

func TestStoreConcurrentAppend(t *testing.T) {
	const writers = 64
	s := NewStore()

	var g errgroup.Group
	for i := range writers {
		g.Go(func() error {
			s.Append(fmt.Sprintf("w%d-a", i), fmt.Sprintf("w%d-b", i))
			_ = s.Snapshot()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	snap := s.Snapshot()
	require.Len(t, snap, writers*2)

	// each batch stays contiguous and every word appears exactly once
	seen := make(map[string]int)
	for i := 0; i < len(snap); i += 2 {
		var n int
		_, err := fmt.Sscanf(snap[i], "w%d-a", &n)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("w%d-b", n), snap[i+1])
		seen[snap[i]]++
		seen[snap[i+1]]++
	}
	assert.Len(t, seen, writers*2)
	for w, c := range seen {
		assert.Equal(t, 1, c, w)
	}
}
