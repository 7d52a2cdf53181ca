package ai

import (
	"context"

	"github.com/windoze95/amitbot-api/internal/models"
)

// IntentClassifier handles intent classification (Claude).
type IntentClassifier interface {
	ClassifyIntent(ctx context.Context, text string, sessionID string) (*Classification, error)
}

// TranscriptionProvider runs asynchronous speech-to-text jobs (Amazon
// Transcribe or Whisper).
type TranscriptionProvider interface {
	StartJob(ctx context.Context, ref models.StorageRef) (string, error)
	PollStatus(ctx context.Context, jobID string) (*JobReport, error)
}

// SpeechProvider handles text-to-speech (Amazon Polly or OpenAI).
type SpeechProvider interface {
	SynthesizeSpeech(ctx context.Context, text string) (*SpeechAudio, error)
}

// ObjectReader reads stored objects; the transcription providers use it to
// fetch audio and transcripts.
type ObjectReader interface {
	Get(ctx context.Context, ref models.StorageRef) ([]byte, error)
}

// Classification is the classifier's native answer before it is mapped
// onto the internal intent taxonomy.
type Classification struct {
	IntentName string            `json:"intent"`
	Slots      map[string]string `json:"slots"`
	Confidence float64           `json:"confidence"`
}

// JobReport is one status observation of a transcription job. Text is only
// set when Status is JobStatusSucceeded.
type JobReport struct {
	Status        models.JobStatus
	Text          string
	FailureReason string
}

// SpeechAudio is synthesized audio ready for upload.
type SpeechAudio struct {
	Data        []byte
	ContentType string
	Ext         string
}
