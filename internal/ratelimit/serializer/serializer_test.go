package serializer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDoReturnsTheFunctionsResult(t *testing.T) {
	s := New[int]()
	n, err := s.Do(context.Background(), "client-1", func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	require.Equal(t, 42, n)
}

func TestDoSerializesCallsForTheSameClientInArrivalOrder(t *testing.T) {
	s := New[int]()
	var mu sync.Mutex
	var order []int

	started := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		_, _ = s.Do(context.Background(), "client-1", func(context.Context) (int, error) {
			close(started)
			<-release
			mu.Lock()
			order = append(order, 1)
			mu.Unlock()
			return 1, nil
		})
	}()
	<-started // guarantee call 1 is enqueued and running before 2 and 3 enqueue

	for i := 2; i <= 3; i++ {
		i := i
		go func() {
			defer wg.Done()
			_, _ = s.Do(context.Background(), "client-1", func(context.Context) (int, error) {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return i, nil
			})
		}()
		// Wait until call i is queued so arrival order is exactly 1, 2, 3.
		for {
			s.mu.Lock()
			n := len(s.queues["client-1"])
			s.mu.Unlock()
			if n == i {
				break
			}
			time.Sleep(time.Millisecond)
		}
	}
	time.Sleep(10 * time.Millisecond) // let 2 and 3 enqueue behind 1
	close(release)
	wg.Wait()

	require.Equal(t, []int{1, 2, 3}, order)
}

func TestDoDistinctClientsRunConcurrently(t *testing.T) {
	s := New[int]()
	blockA := make(chan struct{})
	startedB := make(chan struct{})

	go func() {
		_, _ = s.Do(context.Background(), "a", func(context.Context) (int, error) {
			<-blockA
			return 0, nil
		})
	}()

	done := make(chan struct{})
	go func() {
		_, _ = s.Do(context.Background(), "b", func(context.Context) (int, error) {
			close(startedB)
			return 0, nil
		})
		close(done)
	}()

	select {
	case <-startedB:
	case <-time.After(time.Second):
		t.Fatal("client b's call never started while client a was still blocked")
	}
	close(blockA)
	<-done
}

func TestDoQueueIsRemovedOnceDrained(t *testing.T) {
	s := New[int]()
	_, err := s.Do(context.Background(), "client-1", func(context.Context) (int, error) {
		return 1, nil
	})
	require.NoError(t, err)

	s.mu.Lock()
	_, exists := s.queues["client-1"]
	s.mu.Unlock()
	require.False(t, exists)
}

func TestDoErrorStillAdvancesTheQueue(t *testing.T) {
	s := New[int]()
	boom := errors.New("store unavailable")

	_, err := s.Do(context.Background(), "client-1", func(context.Context) (int, error) {
		return 0, boom
	})
	require.ErrorIs(t, err, boom)

	n, err := s.Do(context.Background(), "client-1", func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	require.Equal(t, 7, n)
}

func TestDoContextCancellationReturnsEarlyWithoutDroppingTheQueueEntry(t *testing.T) {
	s := New[int]()
	started := make(chan struct{})
	release := make(chan struct{})

	_ = started
	ran := make(chan struct{})
	go func() {
		_, _ = s.Do(context.Background(), "client-1", func(context.Context) (int, error) {
			<-release
			return 1, nil
		})
	}()
	time.Sleep(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_, err := s.Do(ctx, "client-1", func(context.Context) (int, error) {
			close(ran)
			return 2, nil
		})
		require.ErrorIs(t, err, context.Canceled)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cancellation did not unblock the waiting caller")
	}
	close(release)

	// The cancelled caller's entry stays queued and is still run once the
	// head call finishes.
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("the cancelled caller's queued call was dropped instead of run")
	}
}
