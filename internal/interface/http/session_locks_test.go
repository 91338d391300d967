package http

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionLocks(t *testing.T) {
	t.Parallel()
	var locks sessionLocks

	const workers = 16
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("S1")
			defer unlock()
			v := counter
			counter = v + 1
		}()
	}
	wg.Wait()
	require.Equal(t, workers, counter)

	unlockA := locks.lock("A")
	unlockB := locks.lock("B")
	require.Len(t, locks.locks, 2)
	unlockA()
	unlockB()
	require.Empty(t, locks.locks)
}
