package ui

import "sync/atomic"

// Stats aggregates a preload run across chapters.
type Stats struct {
	TotalPages    atomic.Int64
	TotalBytes    atomic.Int64
	TotalChapters atomic.Int64
	TotalFailed   atomic.Int64
}
