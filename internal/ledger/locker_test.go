package ledger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocker_SerializesSameKey(t *testing.T) {
	l := NewLocker()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("u1")
			defer unlock()
			v := counter
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, l.size())
}

func TestLocker_OverlappingSetsDoNotDeadlock(t *testing.T) {
	l := NewLocker()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unlock := l.Lock("a", "b", "c")
			unlock()
		}()
		go func() {
			defer wg.Done()
			unlock := l.Lock("c", "a", "a")
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, l.size())
}

func TestLocker_UnlockIsIdempotent(t *testing.T) {
	l := NewLocker()
	unlock := l.Lock("x")
	unlock()
	unlock()

	unlock = l.Lock("x")
	defer unlock()
	assert.Equal(t, 1, l.size())
}
