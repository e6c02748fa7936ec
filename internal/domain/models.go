package domain

import "time"

// CrawlStats is a snapshot of a crawl run's counters.
type CrawlStats struct {
	RunID            string    `json:"run_id"`
	Seed             string    `json:"seed"`
	StartedAt        time.Time `json:"started_at"`
	WorkersStarted   int64     `json:"workers_started"`
	WorkersAbstained int64     `json:"workers_abstained"` // turned away by the admission check
	WorkersFailed    int64     `json:"workers_failed"`
	WorkersActive    int64     `json:"workers_active"`
	PagesClaimed     int64     `json:"pages_claimed"`
	ImagesClaimed    int64     `json:"images_claimed"`
}

// ImageRecord is one discovered image as kept by catalog sinks.
type ImageRecord struct {
	Ref    string
	RunID  string
	SeenAt time.Time
}

// ViewerImage is the image a viewer sink currently shows.
type ViewerImage struct {
	Ref     string    `json:"ref"`
	Format  string    `json:"format"`
	Width   int       `json:"width"`
	Height  int       `json:"height"`
	ShownAt time.Time `json:"shown_at"`
}
