package pipeline

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotNewestWins(t *testing.T) {
	s := NewSlot[int]()

	assert.False(t, s.Put(1))
	assert.True(t, s.Put(2), "second put must report the overwrite")
	assert.True(t, s.Pending())
	assert.Equal(t, uint64(1), s.Drops())

	v, ok := s.Take()
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.False(t, s.Pending())
}

func TestSlotTakeBlocksUntilPut(t *testing.T) {
	s := NewSlot[string]()
	got := make(chan string, 1)

	go func() {
		v, _ := s.Take()
		got <- v
	}()

	select {
	case <-got:
		t.Fatal("Take returned before Put")
	case <-time.After(20 * time.Millisecond):
	}

	s.Put("clip")
	select {
	case v := <-got:
		assert.Equal(t, "clip", v)
	case <-time.After(time.Second):
		t.Fatal("Take did not wake up")
	}
}

func TestSlotCloseWakesConsumer(t *testing.T) {
	s := NewSlot[int]()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, ok := s.Take()
		assert.False(t, ok)
	}()

	time.Sleep(10 * time.Millisecond)
	s.Close()
	s.Close()
	wg.Wait()

	assert.False(t, s.Put(3))
	assert.False(t, s.Pending())
}

func TestLatestRepeatsUntilNewer(t *testing.T) {
	var l Latest[int]
	_, _, ok := l.Load()
	assert.False(t, ok)

	l.Store(7)
	for i := 0; i < 3; i++ {
		v, seq, ok := l.Load()
		require.True(t, ok)
		assert.Equal(t, 7, v)
		assert.Equal(t, uint64(1), seq)
	}

	l.Store(9)
	v, seq, _ := l.Load()
	assert.Equal(t, 9, v)
	assert.Equal(t, uint64(2), seq)
}
