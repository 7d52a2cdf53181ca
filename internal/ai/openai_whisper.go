package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"github.com/windoze95/amitbot-api/internal/logger"
	"github.com/windoze95/amitbot-api/internal/models"
	"go.uber.org/zap"
)

// whisperJobTimeout bounds a single background Whisper call.
const whisperJobTimeout = 2 * time.Minute

// finishedJobTTL is how long finished jobs stay pollable.
const finishedJobTTL = 10 * time.Minute

// whisperTranscriber is the subset of the OpenAI client in use.
type whisperTranscriber interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

type whisperJob struct {
	report     JobReport
	finishedAt time.Time
}

// WhisperJobProvider implements TranscriptionProvider on top of the
// synchronous Whisper API by running each job in the background and
// keeping its status in memory.
type WhisperJobProvider struct {
	client whisperTranscriber
	store  ObjectReader

	mu   sync.Mutex
	jobs map[string]*whisperJob
}

// NewWhisperJobProvider creates a Whisper-backed transcription provider.
func NewWhisperJobProvider(apiKey string, store ObjectReader) *WhisperJobProvider {
	return newWhisperJobProvider(openai.NewClient(apiKey), store)
}

func newWhisperJobProvider(client whisperTranscriber, store ObjectReader) *WhisperJobProvider {
	return &WhisperJobProvider{
		client: client,
		store:  store,
		jobs:   make(map[string]*whisperJob),
	}
}

// StartJob queues a background transcription of the audio at ref. The job
// outlives ctx; callers that give up simply stop polling.
func (p *WhisperJobProvider) StartJob(ctx context.Context, ref models.StorageRef) (string, error) {
	jobID := "whisper-" + uuid.New().String()

	p.mu.Lock()
	p.sweepLocked(time.Now())
	p.jobs[jobID] = &whisperJob{report: JobReport{Status: models.JobStatusQueued}}
	p.mu.Unlock()

	go p.run(jobID, ref)
	return jobID, nil
}

// PollStatus returns the latest report for jobID.
func (p *WhisperJobProvider) PollStatus(ctx context.Context, jobID string) (*JobReport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	job, ok := p.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("unknown whisper job %q", jobID)
	}
	report := job.report
	return &report, nil
}

func (p *WhisperJobProvider) run(jobID string, ref models.StorageRef) {
	ctx, cancel := context.WithTimeout(context.Background(), whisperJobTimeout)
	defer cancel()

	p.update(jobID, JobReport{Status: models.JobStatusRunning})

	audio, err := p.store.Get(ctx, ref)
	if err != nil {
		p.update(jobID, JobReport{Status: models.JobStatusFailed, FailureReason: err.Error()})
		return
	}

	text, err := p.transcribe(ctx, audio, path.Base(ref.Key))
	if err != nil {
		logger.Get().Warn("whisper transcription failed", zap.String("job_id", jobID), zap.Error(err))
		p.update(jobID, JobReport{Status: models.JobStatusFailed, FailureReason: err.Error()})
		return
	}
	p.update(jobID, JobReport{Status: models.JobStatusSucceeded, Text: text})
}

// transcribe calls Whisper, retrying rate limits and server errors.
func (p *WhisperJobProvider) transcribe(ctx context.Context, audioData []byte, fileName string) (string, error) {
	if len(audioData) == 0 {
		return "", errors.New("audio data is empty")
	}

	const maxRetries = 3
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
			Model:    openai.Whisper1,
			Reader:   bytes.NewReader(audioData),
			FilePath: fileName,
		})
		if err == nil {
			if resp.Text == "" {
				return "", errors.New("Whisper returned empty transcription")
			}
			return resp.Text, nil
		}

		lastErr = err
		shouldRetry, waitTime := classifyOpenAIError(err)
		if !shouldRetry {
			return "", fmt.Errorf("Whisper API error: %w", err)
		}

		logger.Get().Warn("Whisper API error, retrying",
			zap.Error(err),
			zap.Int("attempt", i+1),
		)

		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(waitTime * time.Duration(i+1)):
			}
		}
	}

	return "", fmt.Errorf("Whisper API: exhausted %d retries: %w", maxRetries, lastErr)
}

func (p *WhisperJobProvider) update(jobID string, report JobReport) {
	p.mu.Lock()
	defer p.mu.Unlock()

	job, ok := p.jobs[jobID]
	if !ok {
		return
	}
	job.report = report
	if report.Status.IsTerminal() {
		job.finishedAt = time.Now()
	}
}

// sweepLocked drops finished jobs nobody polled within finishedJobTTL.
func (p *WhisperJobProvider) sweepLocked(now time.Time) {
	for id, job := range p.jobs {
		if !job.finishedAt.IsZero() && now.Sub(job.finishedAt) > finishedJobTTL {
			delete(p.jobs, id)
		}
	}
}
