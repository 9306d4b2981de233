// Package metering tracks monthly image credits per account.
//
// Each account is on a Plan (Free: 10 images a month, Level 1: 100,
// Level 2: unlimited). A batch reserves credits for its whole upload
// count up front, atomically with the allowance check, and releases the
// share it did not produce afterwards.
// Usage is keyed by calendar month ("2006-01") and starts over at zero the
// first time an account is seen in a new month.
//
// State lives behind the Store interface: MemoryStore for a single process,
// RedisStore when several servers share accounts.
package metering
