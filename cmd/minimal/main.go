// Command minimal shows the smallest possible use of the batched queue:
// two single-element writes followed by one two-element read.
//
// Usage:
//
//	go run ./cmd/minimal
package main

import (
	"fmt"
	"log"

	"github.com/randomizedcoder/batched-spsc-queue/internal/queue"
)

func main() {
	cfg := queue.Config{
		Slots:        128,
		EnqueueBatch: 1,
		DequeueBatch: 2,
		ElementSize:  1,
	}

	// The caller owns the backing buffer; the queue only borrows it.
	buf := make([]byte, cfg.BufferSize())
	q, err := queue.New(cfg, buf)
	if err != nil {
		log.Fatalf("minimal: %v", err)
	}

	// Enqueue 0, then 1.
	for _, v := range []byte{0, 1} {
		w, ok := q.AcquireWrite()
		if !ok {
			log.Fatalf("minimal: queue full")
		}
		w.Bytes()[0] = v
		q.CommitWrite()
	}

	// Dequeue both in one batch.
	r, ok := q.AcquireRead()
	if !ok {
		log.Fatalf("minimal: queue empty")
	}
	fmt.Println(r.Slot(0)[0], r.Slot(1)[0])
	q.CommitRead()
}
