// Package database provides SQLite-based crawl history for mdscrape.
//
// This package implements the CrawlDB, which stores:
//   - One row per crawl session (seed, policy, timing, outcome)
//   - One row per page outcome (saved or failed, output paths, title)
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database
