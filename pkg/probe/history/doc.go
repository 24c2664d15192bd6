// Package history stores the results of provider availability probes so
// operators can see how a provider's status changed over time.
//
// Two backends are available. MemoryStore keeps records for the life of the
// process. SQLiteStore persists them with either SQLite driver:
//
//	probe:
//	  history:
//	    backend: sqlite
//	    driver: sqlite      # modernc.org/sqlite, no cgo
//	    path: data/probe-history.db
//	    retention: 168h
//
// Records hold provider status and series counts only; no catalog data is
// ever written.
package history
