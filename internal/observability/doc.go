// Package observability provides event logging, the append-only usage
// journal, and metrics calculation for toolbrain. It uses structured JSON
// Lines (JSONL) for event persistence and derives metrics on-demand from
// the event log.
package observability
