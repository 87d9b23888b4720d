package domain

import "time"

// JobEventType identifies a job lifecycle transition
type JobEventType string

const (
	JobEventStarted   JobEventType = "started"
	JobEventProgress  JobEventType = "progress"
	JobEventCompleted JobEventType = "completed"
	JobEventFailed    JobEventType = "failed"
	JobEventCancelled JobEventType = "cancelled"
)

// JobEvent is emitted by the index worker for every job lifecycle transition
type JobEvent struct {
	Type       JobEventType `json:"type"`
	JobID      string       `json:"job_id"`
	ScheduleID string       `json:"schedule_id"`
	JobType    JobType      `json:"job_type"`
	Processed  int          `json:"processed,omitempty"`
	Total      int          `json:"total,omitempty"`
	Progress   float64      `json:"progress,omitempty"`
	Error      string       `json:"error,omitempty"`
	At         time.Time    `json:"at"`
}

// NewJobEvent creates an event for the given job.
func NewJobEvent(eventType JobEventType, job *IndexJob) JobEvent {
	return JobEvent{
		Type:       eventType,
		JobID:      job.ID,
		ScheduleID: job.ScheduleID,
		JobType:    job.Type,
		At:         time.Now().UTC(),
	}
}

// WorkerState is the state of the index worker's scheduling loop
type WorkerState string

const (
	WorkerStateIdle      WorkerState = "idle"
	WorkerStateChecking  WorkerState = "checking"
	WorkerStateExecuting WorkerState = "executing"
)

// WorkerStatus is the read-only snapshot served by the status surface
type WorkerStatus struct {
	IsRunning  bool           `json:"is_running"`
	State      WorkerState    `json:"state"`
	ActiveJob  *IndexJob      `json:"active_job"`
	RecentJobs []*IndexJob    `json:"recent_jobs"`
	IndexStats []*IndexStatus `json:"index_stats"`
}
