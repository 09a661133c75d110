package events

import "time"

// AdmissionStart is emitted before a request's complexity is analyzed and
// submitted to the rate limiter.
type AdmissionStart struct {
	ClientID string
	Query    string
}

// AdmissionFinish is emitted once an admission decision (admit, reject, or
// dark-mode admit) has been reached.
type AdmissionFinish struct {
	ClientID   string
	Complexity int
	Tokens     float64
	Success    bool
	Dark       bool
	Err        error
	Duration   time.Duration
}
