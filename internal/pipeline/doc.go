// Package pipeline turns fetched pages into written documents and runs
// crawl sessions.
//
// Each fetched page becomes a PageJob that flows through a sequence of
// steps: extract, assemble, name and write. A Session is the crawler's
// page handler for one crawl session; it runs the pipeline for every page
// and collects the outcomes into a SessionReport. A Runner wires a Session
// to a Spider for one seed, and a BatchProcessor runs several seeds
// concurrently.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. It allows easy addition/removal of steps (e.g. PDF output) without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. A failed step leaves no partial output behind later steps
//
// Sessions are independent: each gets its own frontier, namer and report,
// so the batch processor can run them in parallel without shared state.
package pipeline
