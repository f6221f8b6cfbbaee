package models

import "time"

// JobStatus is the state reported by the badge tool's job runner.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// Valid reports whether the status is one the runner is allowed to send.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusRunning, JobStatusSucceeded, JobStatusFailed:
		return true
	}
	return false
}

// JobEvent is one status report from a badge job run.
type JobEvent struct {
	ID         string    `json:"id"`
	JobName    string    `json:"jobName"`
	Status     JobStatus `json:"status"`
	Detail     string    `json:"detail,omitempty"`
	ReportedAt time.Time `json:"reportedAt"`
}
