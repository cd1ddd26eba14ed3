package queue_test

import (
	"encoding/binary"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/randomizedcoder/batched-spsc-queue/internal/poll"
	"github.com/randomizedcoder/batched-spsc-queue/internal/queue"
)

func newGuarded(t *testing.T, slots int) *queue.Batched {
	t.Helper()
	cfg := queue.Config{Slots: slots, EnqueueBatch: 1, DequeueBatch: 1, ElementSize: 8, Guard: true}
	return queue.MustNew(cfg, make([]byte, cfg.BufferSize()))
}

// TestBatched_Guard_ConcurrentProducers_Panics verifies that the SPSC guard
// catches concurrent producers.
//
// This test intentionally violates the SPSC contract to verify the guard works.
func TestBatched_Guard_ConcurrentProducers_Panics(t *testing.T) {
	q := newGuarded(t, 1024)

	panicked := make(chan bool, 1)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				func() {
					defer func() {
						if r := recover(); r != nil {
							select {
							case panicked <- true:
							default:
							}
						}
					}()
					q.Write(func(queue.Window) {})
				}()
			}
		}()
	}

	wg.Wait()

	select {
	case <-panicked:
		t.Log("SPSC guard correctly detected concurrent producers")
	default:
		// The goroutines may not have overlapped; not a failure.
		t.Log("No panic detected (goroutines may not have overlapped)")
	}
}

// TestBatched_Guard_ConcurrentConsumers_Panics verifies that the SPSC guard
// catches concurrent consumers.
func TestBatched_Guard_ConcurrentConsumers_Panics(t *testing.T) {
	q := newGuarded(t, 1024)
	q.Prefill()

	panicked := make(chan bool, 1)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				func() {
					defer func() {
						if r := recover(); r != nil {
							select {
							case panicked <- true:
							default:
							}
						}
					}()
					q.Read(func(queue.Window) {})
				}()
			}
		}()
	}

	wg.Wait()

	select {
	case <-panicked:
		t.Log("SPSC guard correctly detected concurrent consumers")
	default:
		t.Log("No panic detected (goroutines may not have overlapped)")
	}
}

// TestBatched_Guard_SerialUse verifies the guards stay quiet for a single
// producer and a single consumer.
func TestBatched_Guard_SerialUse(t *testing.T) {
	q := newGuarded(t, 8)

	for i := 0; i < 100; i++ {
		if !q.Write(func(w queue.Window) { binary.LittleEndian.PutUint64(w.Bytes(), uint64(i)) }) {
			t.Fatalf("expected Write() = true for %d", i)
		}
		var got uint64
		if !q.Read(func(w queue.Window) { got = binary.LittleEndian.Uint64(w.Bytes()) }) {
			t.Fatalf("expected Read() = true for %d", i)
		}
		if got != uint64(i) {
			t.Fatalf("expected %d, got %d", i, got)
		}
	}
}

// TestBatched_Guard_HeldWindow verifies the guard covers the whole window
// lifetime: a second acquire between acquire and commit panics, and the
// side is free again after the commit.
func TestBatched_Guard_HeldWindow(t *testing.T) {
	q := newGuarded(t, 4)

	if _, ok := q.AcquireWrite(); !ok {
		t.Fatal("expected AcquireWrite() = true on empty queue")
	}
	mustPanic(t, "second AcquireWrite with a window outstanding", func() { q.AcquireWrite() })
	q.CommitWrite()
	if _, ok := q.AcquireWrite(); !ok {
		t.Fatal("expected AcquireWrite() = true after CommitWrite()")
	}
	q.CommitWrite()

	if _, ok := q.AcquireRead(); !ok {
		t.Fatal("expected AcquireRead() = true after two writes")
	}
	mustPanic(t, "second AcquireRead with a window outstanding", func() { q.AcquireRead() })
	q.CommitRead()
	if _, ok := q.AcquireRead(); !ok {
		t.Fatal("expected AcquireRead() = true after CommitRead()")
	}
	q.CommitRead()

	// A failed acquire holds nothing
	if _, ok := q.AcquireRead(); ok {
		t.Fatal("expected AcquireRead() = false on empty queue")
	}
	if _, ok := q.AcquireRead(); ok {
		t.Fatal("expected AcquireRead() = false on empty queue")
	}
	for q.Write(func(queue.Window) {}) {
	}
	if _, ok := q.AcquireWrite(); ok {
		t.Fatal("expected AcquireWrite() = false on full queue")
	}

	// Reset clears a window left outstanding
	if _, ok := q.AcquireRead(); !ok {
		t.Fatal("expected AcquireRead() = true on full queue")
	}
	q.Reset()
	if _, ok := q.AcquireWrite(); !ok {
		t.Fatal("expected AcquireWrite() = true after Reset()")
	}
	q.CommitWrite()
	if _, ok := q.AcquireRead(); !ok {
		t.Fatal("expected AcquireRead() = true after Reset() and a write")
	}
	q.CommitRead()
}

// produce writes the sequence 0..total-1, one enqueue batch at a time,
// pausing for delay after every commit.
func produce(q *queue.Batched, stop poll.Canceler, total int, delay time.Duration) bool {
	eb := q.EnqueueBatch()
	for i := 0; i < total/eb; i++ {
		w, ok := poll.AcquireWrite(q, stop)
		if !ok {
			return false
		}
		for j := 0; j < eb; j++ {
			binary.LittleEndian.PutUint64(w.Slot(j), uint64(i*eb+j))
		}
		q.CommitWrite()
		poll.Spin(delay)
	}
	return true
}

// consume reads total elements and checks they form the sequence
// 0..total-1.
func consume(q *queue.Batched, stop poll.Canceler, total int, delay time.Duration) error {
	db := q.DequeueBatch()
	for i := 0; i < total/db; i++ {
		w, ok := poll.AcquireRead(q, stop)
		if !ok {
			return fmt.Errorf("canceled at batch %d", i)
		}
		for j := 0; j < db; j++ {
			want := uint64(i*db + j)
			if got := binary.LittleEndian.Uint64(w.Slot(j)); got != want {
				return fmt.Errorf("batch %d slot %d: expected %d, got %d", i, j, want, got)
			}
		}
		q.CommitRead()
		poll.Spin(delay)
	}
	return nil
}

// TestBatched_SPSC_Integrity runs one producer and one consumer goroutine
// over millions of elements at varied relative speeds.
func TestBatched_SPSC_Integrity(t *testing.T) {
	if queue.RaceEnabled {
		t.Skip("skip: cursor protocol uses relaxed/acquire/release ordering")
	}

	total := 3_000_000
	if testing.Short() {
		total = 300_000
	}

	testCases := []struct {
		enq, deq         int
		produce, consume time.Duration
	}{
		{2, 3, 0, 0},
		{2, 3, 2 * time.Microsecond, 0},
		{2, 3, 0, time.Microsecond},
		{3, 2, 0, 0},
		{3, 2, 2 * time.Microsecond, 0},
		{3, 2, 0, time.Microsecond},
	}

	for _, tc := range testCases {
		name := fmt.Sprintf("enq%d_deq%d_p%v_c%v", tc.enq, tc.deq, tc.produce, tc.consume)
		t.Run(name, func(t *testing.T) {
			q, _ := newQueue(t, 300, tc.enq, tc.deq, 8)
			stop := poll.NewFlag()

			produced := make(chan bool, 1)
			go func() {
				produced <- produce(q, stop, total, tc.produce)
			}()

			// Consumer (single goroutine - this test's goroutine)
			err := consume(q, stop, total, tc.consume)
			stop.Cancel()

			if err != nil {
				t.Error(err)
			}
			if !<-produced {
				t.Error("producer did not finish")
			}
			if q.Occupancy() != 0 {
				t.Errorf("expected empty queue, Occupancy() = %d", q.Occupancy())
			}
		})
	}
}

// TestBatched_SPSC_OccupancyObserver reads Occupancy from a third
// goroutine while the pipeline runs; every snapshot must stay in range.
func TestBatched_SPSC_OccupancyObserver(t *testing.T) {
	if queue.RaceEnabled {
		t.Skip("skip: cursor protocol uses relaxed/acquire/release ordering")
	}

	q, _ := newQueue(t, 64, 4, 8, 8)
	stop := poll.NewFlag()
	total := 64_000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		produce(q, stop, total, 0)
	}()

	observed := make(chan error, 1)
	go func() {
		for !stop.Done() {
			if occ := q.Occupancy(); occ < 0 || occ > q.Slots() {
				observed <- fmt.Errorf("Occupancy() = %d out of [0, %d]", occ, q.Slots())
				return
			}
		}
		observed <- nil
	}()

	if err := consume(q, stop, total, 0); err != nil {
		t.Error(err)
	}
	stop.Cancel()
	wg.Wait()

	if err := <-observed; err != nil {
		t.Error(err)
	}
}
