package model

import "time"

type FileInfo struct {
	FullPath string
	ModTime  time.Time
	Name     string
	Size     int64
}

// LibraryFile describes one MP3 in the files directory together with its
// marker sidecar state, as shown by listings and the HTTP API.
type LibraryFile struct {
	Name         string  `json:"name"`
	Path         string  `json:"path"`
	SizeBytes    int64   `json:"size_bytes"`
	Duration     float64 `json:"duration,omitempty"`
	HasMarkers   bool    `json:"has_markers"`
	MarkerCount  int     `json:"marker_count,omitempty"`
	SegmentCount int     `json:"segment_count,omitempty"`
}
