// Package database stores run history in SQLite (modernc.org/sqlite, no
// CGO).
//
// Each successful run is saved with its search term, total count, report
// digest and full report JSON, together with the unknown characters the
// translator met during the run. The history command reads it back to list
// runs, compare the two latest runs and show every unknown character seen
// so far.
package database
