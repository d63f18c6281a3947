package tables

import (
	"log"
	"time"
)

// LogLoad logs a finished table load.
func LogLoad(table string, records, indexed int, duration time.Duration) {
	log.Printf("[tables] %s loaded records=%d indexed=%d duration=%dms",
		table, records, indexed, duration.Milliseconds())
}

// LogError logs a failed table operation.
func LogError(table, operation string, err error) {
	log.Printf("[tables] %s %s error: %v", table, operation, err)
}

// LogRetry logs a fetch about to be retried.
func LogRetry(loc string, attempt int, err error) {
	log.Printf("[tables] retrying %s attempt=%d last_err=%v", loc, attempt, err)
}

// LogDuplicates logs keys overwritten while indexing.
func LogDuplicates(table string, count int) {
	if count > 0 {
		log.Printf("[tables] %s WARNING: %d duplicate keys, later rows win", table, count)
	}
}

// LogReload logs a reload request.
func LogReload(source string) {
	log.Printf("[tables] reload requested source=%s", source)
}
