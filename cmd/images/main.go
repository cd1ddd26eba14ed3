// Command images moves batches of grayscale images from a producer
// goroutine to a consumer goroutine through the batched queue.
//
// The producer fills image n with the byte value n and commits 8 images at
// a time. The consumer takes 64 images at a time and verifies each one
// against the SHA3-256 digest of the expected image.
//
// Usage:
//
//	go run ./cmd/images -width 1024 -height 1024
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/randomizedcoder/batched-spsc-queue/internal/poll"
	"github.com/randomizedcoder/batched-spsc-queue/internal/queue"
)

type params struct {
	width, height int
	images        int
	slots         int
	enqueueBatch  int
	dequeueBatch  int
}

func main() {
	var p params
	flag.IntVar(&p.width, "width", 1024, "image width in pixels")
	flag.IntVar(&p.height, "height", 1024, "image height in pixels")
	flag.IntVar(&p.images, "images", 128, "number of images to transfer (at most 256)")
	flag.IntVar(&p.slots, "slots", 128, "queue slots (images)")
	flag.IntVar(&p.enqueueBatch, "enqueue-batch", 8, "images per producer commit")
	flag.IntVar(&p.dequeueBatch, "dequeue-batch", 64, "images per consumer commit")
	flag.Parse()

	fmt.Printf("Transferring %d images of %dx%d (slots=%d, enqueue=%d, dequeue=%d)\n",
		p.images, p.width, p.height, p.slots, p.enqueueBatch, p.dequeueBatch)
	fmt.Println("─────────────────────────────────────────────────")

	start := time.Now()
	bad, err := run(p)
	if err != nil {
		log.Fatalf("images: %v", err)
	}
	dur := time.Since(start)

	mb := float64(p.images*p.width*p.height) / (1 << 20)
	fmt.Printf("  Transferred: %.1f MiB in %v (%.1f MiB/s)\n", mb, dur, mb/dur.Seconds())
	if bad > 0 {
		log.Fatalf("images: %d corrupted images", bad)
	}
	fmt.Println("  All images verified")
}

// run transfers p.images images and returns how many failed verification.
func run(p params) (int, error) {
	if p.images <= 0 || p.images > 256 {
		return 0, fmt.Errorf("images must be in [1, 256], got %d", p.images)
	}

	cfg := queue.Config{
		Slots:        p.slots,
		EnqueueBatch: p.enqueueBatch,
		DequeueBatch: p.dequeueBatch,
		ElementSize:  p.width * p.height,
	}
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	if p.images%p.enqueueBatch != 0 || p.images%p.dequeueBatch != 0 {
		return 0, fmt.Errorf("images=%d must be a multiple of both batch sizes", p.images)
	}
	q, err := queue.New(cfg, make([]byte, cfg.BufferSize()))
	if err != nil {
		return 0, err
	}

	// Expected digest per pixel value, computed up front so the consumer
	// only hashes what it receives.
	want := make([][32]byte, p.images)
	for n := range want {
		want[n] = sha3.Sum256(bytes.Repeat([]byte{byte(n)}, cfg.ElementSize))
	}

	stop := poll.NewFlag()
	done := make(chan struct{})
	go func() {
		defer close(done)
		produce(q, stop, p.images)
	}()

	bad := consume(q, stop, p.images, want)
	stop.Cancel()
	<-done
	return bad, nil
}

func produce(q *queue.Batched, stop poll.Canceler, images int) {
	eb := q.EnqueueBatch()
	for i := 0; i < images/eb; i++ {
		// Wait until there is room for a whole batch.
		w, ok := poll.AcquireWrite(q, stop)
		if !ok {
			return
		}
		for j := 0; j < eb; j++ {
			img := w.Slot(j)
			v := byte(i*eb + j)
			for k := range img {
				img[k] = v
			}
		}
		q.CommitWrite()
	}
}

func consume(q *queue.Batched, stop poll.Canceler, images int, want [][32]byte) int {
	db := q.DequeueBatch()
	bad := 0
	for i := 0; i < images/db; i++ {
		w, ok := poll.AcquireRead(q, stop)
		if !ok {
			return bad + images - i*db
		}
		for j := 0; j < db; j++ {
			n := i*db + j
			if sha3.Sum256(w.Slot(j)) != want[n] {
				log.Printf("images: image %d corrupted", n)
				bad++
			}
		}
		q.CommitRead()
	}
	return bad
}
