package models

import (
	"fmt"
	"time"
)

// JobStatus is the lifecycle state of a transcription job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusTimedOut  JobStatus = "timed_out"
)

func (s JobStatus) rank() int {
	switch s {
	case JobStatusQueued:
		return 0
	case JobStatusRunning:
		return 1
	case JobStatusSucceeded, JobStatusFailed, JobStatusTimedOut:
		return 2
	default:
		return -1
	}
}

// IsTerminal reports whether no further transition is possible.
func (s JobStatus) IsTerminal() bool {
	return s.rank() == 2
}

// TranscriptionJob tracks one asynchronous transcription request.
type TranscriptionJob struct {
	JobID      string
	StorageRef StorageRef
	Status     JobStatus
	ResultText string
	Attempts   int
	StartedAt  time.Time
}

// NewTranscriptionJob returns a job in the Queued state.
func NewTranscriptionJob(jobID string, ref StorageRef, startedAt time.Time) *TranscriptionJob {
	return &TranscriptionJob{
		JobID:      jobID,
		StorageRef: ref,
		Status:     JobStatusQueued,
		StartedAt:  startedAt,
	}
}

// Advance moves the job to next. Status never moves backwards; staying in
// Running is allowed so polls can be retried.
func (j *TranscriptionJob) Advance(next JobStatus) error {
	if next.rank() < 0 {
		return fmt.Errorf("job %s: unknown status %q", j.JobID, next)
	}
	if j.Status.IsTerminal() {
		return fmt.Errorf("job %s: already %s", j.JobID, j.Status)
	}
	if next.rank() < j.Status.rank() || (next == j.Status && next != JobStatusRunning) {
		return fmt.Errorf("job %s: cannot move from %s to %s", j.JobID, j.Status, next)
	}
	if next == JobStatusSucceeded {
		return fmt.Errorf("job %s: use Succeed to complete a job", j.JobID)
	}
	j.Status = next
	return nil
}

// Succeed completes the job with its recognized text.
func (j *TranscriptionJob) Succeed(text string) error {
	if j.Status.IsTerminal() {
		return fmt.Errorf("job %s: already %s", j.JobID, j.Status)
	}
	j.Status = JobStatusSucceeded
	j.ResultText = text
	return nil
}
