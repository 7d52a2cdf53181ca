package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/windoze95/amitbot-api/internal/ai"
	"github.com/windoze95/amitbot-api/internal/apperr"
	"github.com/windoze95/amitbot-api/internal/logger"
	"github.com/windoze95/amitbot-api/internal/metrics"
	"github.com/windoze95/amitbot-api/internal/models"
	"go.uber.org/zap"
)

// TranscriptionWaiter submits a transcription job and polls it to a
// terminal state.
type TranscriptionWaiter struct {
	Provider ai.TranscriptionProvider
	Interval time.Duration
}

// NewTranscriptionWaiter creates a waiter polling every interval.
func NewTranscriptionWaiter(provider ai.TranscriptionProvider, interval time.Duration) *TranscriptionWaiter {
	return &TranscriptionWaiter{Provider: provider, Interval: interval}
}

// Transcribe returns the recognized text of the audio at ref.
func (w *TranscriptionWaiter) Transcribe(ctx context.Context, ref models.StorageRef, timeout time.Duration) (string, error) {
	job, err := w.Wait(ctx, ref, timeout)
	if err != nil {
		return "", err
	}
	return job.ResultText, nil
}

// maxPolls is ⌈timeout/interval⌉, at least one.
func maxPolls(timeout, interval time.Duration) int {
	if interval <= 0 {
		return 1
	}
	n := int((timeout + interval - 1) / interval)
	if n < 1 {
		n = 1
	}
	return n
}

// Wait submits one job for ref and polls it. Poll k happens k intervals
// after submission, for at most ⌈timeout/interval⌉ polls. Every provider
// call shares a deadline of timeout plus one interval from submission, so
// Wait returns within that bound even when a call hangs. A job still running
// after the last poll is abandoned, not cancelled. Submission is never
// retried; a failed poll that is transient counts as an attempt and the job
// stays running.
func (w *TranscriptionWaiter) Wait(ctx context.Context, ref models.StorageRef, timeout time.Duration) (*models.TranscriptionJob, error) {
	started := time.Now()
	callCtx, cancel := context.WithDeadline(ctx, started.Add(timeout+w.Interval))
	defer cancel()

	jobID, err := w.Provider.StartJob(callCtx, ref)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("start transcription: %w", ctx.Err())
		}
		if callCtx.Err() != nil {
			return nil, apperr.New(apperr.KindTranscriptionTimeout, "start transcription", fmt.Errorf("no job after %s", timeout))
		}
		return nil, apperr.New(apperr.KindTranscription, "start transcription", err)
	}

	job := models.NewTranscriptionJob(jobID, ref, started)
	log := logger.Get().With(zap.String("job_id", jobID), zap.String("storage_ref", ref.URI()))
	log.Info("transcription job submitted")

	limit := maxPolls(timeout, w.Interval)
	defer func() { metrics.TranscriptionPolls.Observe(float64(job.Attempts)) }()

	timer := time.NewTimer(time.Until(started.Add(w.Interval)))
	defer timer.Stop()

	for k := 1; k <= limit; k++ {
		if k > 1 {
			// Schedule from the start so slow polls do not push later ones out.
			timer.Reset(time.Until(started.Add(time.Duration(k) * w.Interval)))
		}
		select {
		case <-ctx.Done():
			return job, fmt.Errorf("transcription job %s: %w", jobID, ctx.Err())
		case <-timer.C:
		}

		job.Attempts++
		report, err := w.Provider.PollStatus(callCtx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return job, fmt.Errorf("transcription job %s: %w", jobID, ctx.Err())
			}
			if callCtx.Err() != nil {
				return job, w.timedOut(log, job, timeout)
			}
			if apperr.IsRetryable(err) {
				log.Warn("transcription poll failed, will poll again", zap.Int("attempt", job.Attempts), zap.Error(err))
				_ = job.Advance(models.JobStatusRunning)
				continue
			}
			_ = job.Advance(models.JobStatusFailed)
			return job, apperr.New(apperr.KindTranscription, "poll transcription", err)
		}

		switch report.Status {
		case models.JobStatusSucceeded:
			text := strings.TrimSpace(report.Text)
			if text == "" {
				_ = job.Advance(models.JobStatusFailed)
				return job, apperr.New(apperr.KindTranscription, "transcription", errors.New("no speech recognized"))
			}
			_ = job.Succeed(text)
			log.Info("transcription job succeeded", zap.Int("attempts", job.Attempts))
			return job, nil
		case models.JobStatusFailed:
			_ = job.Advance(models.JobStatusFailed)
			return job, apperr.New(apperr.KindTranscription, "transcription", fmt.Errorf("job %s failed: %s", jobID, report.FailureReason))
		case models.JobStatusRunning:
			_ = job.Advance(models.JobStatusRunning)
		}
	}

	return job, w.timedOut(log, job, timeout)
}

func (w *TranscriptionWaiter) timedOut(log *zap.Logger, job *models.TranscriptionJob, timeout time.Duration) error {
	_ = job.Advance(models.JobStatusTimedOut)
	log.Warn("transcription job timed out", zap.Int("attempts", job.Attempts), zap.Duration("timeout", timeout))
	return apperr.New(apperr.KindTranscriptionTimeout, "transcription", fmt.Errorf("job %s not done after %s", job.JobID, timeout))
}
