// Command throughput benchmarks the batched SPSC queue.
//
// It measures enqueue and dequeue cost on their own (using Reset and
// Prefill instead of a real peer), with and without copying the payload,
// and a two-goroutine pipeline.
//
// Usage:
//
//	go run ./cmd/throughput -duration 5s -slots 1000 -batch 8 -elem 262144
//	go run ./cmd/throughput -pin-producer 2 -pin-consumer 3 -json
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/sugawarayuuta/sonnet"

	"github.com/randomizedcoder/batched-spsc-queue/internal/affinity"
	"github.com/randomizedcoder/batched-spsc-queue/internal/poll"
	"github.com/randomizedcoder/batched-spsc-queue/internal/queue"
)

// checkEvery is how many loop iterations pass between clock reads.
const checkEvery = 1024

type options struct {
	duration    time.Duration
	slots       int
	batch       int
	elem        int
	pinProducer int
	pinConsumer int
	only        string
}

// Result is one scenario's measurement.
type Result struct {
	Name          string        `json:"name"`
	Batches       int64         `json:"batches"`
	Bytes         int64         `json:"bytes"`
	Duration      time.Duration `json:"duration_ns"`
	NsPerBatch    float64       `json:"ns_per_batch"`
	BatchesPerSec float64       `json:"batches_per_sec"`
	MiBPerSec     float64       `json:"mib_per_sec"`
}

// Report is the -json output.
type Report struct {
	GOOS        string   `json:"goos"`
	GOARCH      string   `json:"goarch"`
	GOMAXPROCS  int      `json:"gomaxprocs"`
	Slots       int      `json:"slots"`
	Batch       int      `json:"batch"`
	ElementSize int      `json:"element_size"`
	PinProducer int      `json:"pin_producer"`
	PinConsumer int      `json:"pin_consumer"`
	Results     []Result `json:"results"`
}

type scenario struct {
	name string
	run  func(opts options) (Result, error)
}

var scenarios = []scenario{
	{"enqueue", enqueueOnly(false)},
	{"dequeue", dequeueOnly(false)},
	{"enqueue+copy", enqueueOnly(true)},
	{"dequeue+copy", dequeueOnly(true)},
	{"pipeline", pipeline},
}

func main() {
	var opts options
	flag.DurationVar(&opts.duration, "duration", 2*time.Second, "run time per scenario")
	flag.IntVar(&opts.slots, "slots", 1000, "queue slots")
	flag.IntVar(&opts.batch, "batch", 8, "enqueue and dequeue batch size")
	flag.IntVar(&opts.elem, "elem", 4096, "element size in bytes")
	flag.IntVar(&opts.pinProducer, "pin-producer", -1, "CPU to pin the producer to (-1: no pinning)")
	flag.IntVar(&opts.pinConsumer, "pin-consumer", -1, "CPU to pin the consumer to (-1: no pinning)")
	flag.StringVar(&opts.only, "run", "", "run only the named scenario")
	asJSON := flag.Bool("json", false, "print results as JSON")
	flag.Parse()

	if !*asJSON {
		fmt.Printf("Benchmarking batched SPSC queue (slots=%d, batch=%d, elem=%dB, %v per scenario)\n",
			opts.slots, opts.batch, opts.elem, opts.duration)
		fmt.Printf("Architecture: %s/%s, GOMAXPROCS=%d\n", runtime.GOOS, runtime.GOARCH, runtime.GOMAXPROCS(0))
		fmt.Println("─────────────────────────────────────────────────")
	}

	report := Report{
		GOOS:        runtime.GOOS,
		GOARCH:      runtime.GOARCH,
		GOMAXPROCS:  runtime.GOMAXPROCS(0),
		Slots:       opts.slots,
		Batch:       opts.batch,
		ElementSize: opts.elem,
		PinProducer: opts.pinProducer,
		PinConsumer: opts.pinConsumer,
	}

	for _, s := range scenarios {
		if opts.only != "" && opts.only != s.name {
			continue
		}
		res, err := s.run(opts)
		if err != nil {
			log.Fatalf("throughput: %s: %v", s.name, err)
		}
		res.Name = s.name
		report.Results = append(report.Results, res)
	}

	if *asJSON {
		out, err := sonnet.Marshal(report)
		if err != nil {
			log.Fatalf("throughput: encoding report: %v", err)
		}
		os.Stdout.Write(append(out, '\n'))
		return
	}

	fmt.Printf("\nResults:\n")
	for _, r := range report.Results {
		fmt.Printf("  %-14s %12d batches  %8.2f ns/batch  %8.2f M batches/s  %10.1f MiB/s\n",
			r.Name, r.Batches, r.NsPerBatch, r.BatchesPerSec/1e6, r.MiBPerSec)
	}
}

func newQueue(opts options) (*queue.Batched, error) {
	cfg := queue.Config{
		Slots:        opts.slots,
		EnqueueBatch: opts.batch,
		DequeueBatch: opts.batch,
		ElementSize:  opts.elem,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// BufferSize is only meaningful for a valid geometry.
	return queue.New(cfg, make([]byte, cfg.BufferSize()))
}

func pin(cpu int) func() {
	if cpu < 0 {
		return func() {}
	}
	release, err := affinity.Pin(cpu)
	if err != nil {
		log.Printf("throughput: pinning to cpu %d: %v (continuing unpinned)", cpu, err)
		return func() {}
	}
	return release
}

func result(batches int64, batchBytes int, copied bool, dur time.Duration) Result {
	r := Result{
		Batches:  batches,
		Duration: dur,
	}
	if copied {
		r.Bytes = batches * int64(batchBytes)
	}
	if batches > 0 {
		r.NsPerBatch = float64(dur.Nanoseconds()) / float64(batches)
	}
	if dur > 0 {
		r.BatchesPerSec = float64(batches) / dur.Seconds()
		r.MiBPerSec = float64(r.Bytes) / (1 << 20) / dur.Seconds()
	}
	return r
}

// enqueueOnly measures the producer side. A full queue is emptied with
// Reset instead of by a consumer.
func enqueueOnly(copyPayload bool) func(options) (Result, error) {
	return func(opts options) (Result, error) {
		q, err := newQueue(opts)
		if err != nil {
			return Result{}, err
		}
		defer pin(opts.pinProducer)()

		src := make([]byte, opts.batch*opts.elem)
		every := poll.NewEvery(opts.duration, checkEvery)
		var batches int64

		start := time.Now()
		for !every.Tick() {
			w, ok := q.AcquireWrite()
			if !ok {
				q.Reset()
				w, _ = q.AcquireWrite()
			}
			if copyPayload {
				copy(w.Bytes(), src)
			}
			q.CommitWrite()
			batches++
		}
		return result(batches, len(src), copyPayload, time.Since(start)), nil
	}
}

// dequeueOnly measures the consumer side on a prefilled queue.
func dequeueOnly(copyPayload bool) func(options) (Result, error) {
	return func(opts options) (Result, error) {
		q, err := newQueue(opts)
		if err != nil {
			return Result{}, err
		}
		defer pin(opts.pinConsumer)()

		dst := make([]byte, opts.batch*opts.elem)
		every := poll.NewEvery(opts.duration, checkEvery)
		var batches int64

		q.Prefill()
		start := time.Now()
		for !every.Tick() {
			w, ok := q.AcquireRead()
			if !ok {
				q.Prefill()
				w, _ = q.AcquireRead()
			}
			if copyPayload {
				copy(dst, w.Bytes())
			}
			q.CommitRead()
			batches++
		}
		return result(batches, len(dst), copyPayload, time.Since(start)), nil
	}
}

// pipeline runs a producer and a consumer goroutine, both copying the
// payload, and counts batches that made it to the consumer.
func pipeline(opts options) (Result, error) {
	q, err := newQueue(opts)
	if err != nil {
		return Result{}, err
	}

	stop := poll.NewFlag()
	batchBytes := opts.batch * opts.elem
	consumed := make(chan int64, 1)

	go func() {
		defer pin(opts.pinConsumer)()
		dst := make([]byte, batchBytes)
		var n int64
		for {
			w, ok := poll.AcquireRead(q, stop)
			if !ok {
				consumed <- n
				return
			}
			copy(dst, w.Bytes())
			q.CommitRead()
			n++
		}
	}()

	release := pin(opts.pinProducer)
	src := make([]byte, batchBytes)
	every := poll.NewEvery(opts.duration, checkEvery)

	start := time.Now()
	for !every.Tick() {
		w, ok := poll.AcquireWrite(q, stop)
		if !ok {
			break
		}
		copy(w.Bytes(), src)
		q.CommitWrite()
	}
	stop.Cancel()
	n := <-consumed
	dur := time.Since(start)
	release()

	return result(n, batchBytes, true, dur), nil
}
