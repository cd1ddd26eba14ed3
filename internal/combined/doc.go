// Package combined provides interaction benchmarks that run the batched
// queue together with its callers' wait strategy and against other SPSC
// transports.
//
// These benchmarks are more representative of real-world performance
// than isolated micro-benchmarks, as they capture the cumulative cost
// of polling, cancellation checks and cross-core cursor traffic.
package combined
