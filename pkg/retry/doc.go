// Package retry runs extraction and navigation actions through a bounded
// retry loop with an explicit outcome per attempt. The loop is a plain
// state machine (pending -> attempting -> success | retrying | failed)
// rather than error-driven control flow, so callers can inspect exactly
// why and how often an action ran.
//
// Only transient failures (timeouts, detached nodes, panels that never
// rendered) are retried; launch failures and context cancellation stop
// the loop immediately. The configured Waiter runs before every attempt,
// which keeps retries under the same pacing policy as first attempts.
package retry
