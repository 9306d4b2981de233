// Package batch enhances many uploads concurrently with one shared Enhancer.
//
// Work is spread over a bounded pool (runtime.NumCPU() workers by default).
// Results always come back in input order, and each carries either an
// encoded image named after its input position ("01.jpg", "02.jpg", ...) or
// the error for that upload alone. A corrupt file never aborts its batch.
//
// When a Quota is attached the whole batch is reserved up front and the
// credits for failed or canceled items are released afterwards, so only the
// images that were actually produced stay charged.
package batch
