package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
	"github.com/google/uuid"
	"github.com/windoze95/amitbot-api/internal/apperr"
	"github.com/windoze95/amitbot-api/internal/models"
	"github.com/windoze95/amitbot-api/internal/s3"
)

// transcribeAPI is the subset of the Amazon Transcribe client in use.
type transcribeAPI interface {
	StartTranscriptionJob(ctx context.Context, params *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error)
	GetTranscriptionJob(ctx context.Context, params *transcribe.GetTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error)
}

// TranscribeProvider implements TranscriptionProvider using Amazon
// Transcribe. Transcripts are written to the audio bucket and read back
// through the object store.
type TranscribeProvider struct {
	client   transcribeAPI
	store    ObjectReader
	bucket   string
	language string
}

// NewTranscribeProvider creates an Amazon Transcribe provider.
func NewTranscribeProvider(awsCfg aws.Config, store ObjectReader, bucket, language string) *TranscribeProvider {
	return &TranscribeProvider{
		client:   transcribe.NewFromConfig(awsCfg),
		store:    store,
		bucket:   bucket,
		language: language,
	}
}

// StartJob submits a transcription job for the audio at ref.
func (p *TranscribeProvider) StartJob(ctx context.Context, ref models.StorageRef) (string, error) {
	format, err := mediaFormatFor(ref.Key)
	if err != nil {
		return "", err
	}

	jobName := "transcribe-" + uuid.New().String()
	_, err = p.client.StartTranscriptionJob(ctx, &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
		Media:                &types.Media{MediaFileUri: aws.String(ref.URI())},
		MediaFormat:          format,
		LanguageCode:         types.LanguageCode(p.language),
		OutputBucketName:     aws.String(p.bucket),
		OutputKey:            aws.String(s3.TranscriptKey(jobName)),
	})
	if err != nil {
		return "", fmt.Errorf("start transcription job: %w", err)
	}
	return jobName, nil
}

// PollStatus reports the current state of jobID, fetching the transcript
// once the job has completed.
func (p *TranscribeProvider) PollStatus(ctx context.Context, jobID string) (*JobReport, error) {
	out, err := p.client.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobID),
	})
	if err != nil {
		wrapped := fmt.Errorf("get transcription job: %w", err)
		if shouldRetry, _ := classifyAWSError(err); shouldRetry {
			return nil, apperr.Transient(wrapped)
		}
		return nil, wrapped
	}
	if out.TranscriptionJob == nil {
		return nil, apperr.Transient(errors.New("transcription job missing from response"))
	}

	job := out.TranscriptionJob
	switch job.TranscriptionJobStatus {
	case types.TranscriptionJobStatusQueued:
		return &JobReport{Status: models.JobStatusQueued}, nil
	case types.TranscriptionJobStatusInProgress:
		return &JobReport{Status: models.JobStatusRunning}, nil
	case types.TranscriptionJobStatusFailed:
		return &JobReport{Status: models.JobStatusFailed, FailureReason: aws.ToString(job.FailureReason)}, nil
	case types.TranscriptionJobStatusCompleted:
		data, err := p.store.Get(ctx, models.StorageRef{Bucket: p.bucket, Key: s3.TranscriptKey(jobID)})
		if err != nil {
			return nil, apperr.Transient(fmt.Errorf("read transcript: %w", err))
		}
		text, err := parseTranscript(data)
		if err != nil {
			return &JobReport{Status: models.JobStatusFailed, FailureReason: err.Error()}, nil
		}
		return &JobReport{Status: models.JobStatusSucceeded, Text: text}, nil
	default:
		return &JobReport{Status: models.JobStatusRunning}, nil
	}
}

// transcriptDocument is the JSON document Amazon Transcribe writes.
type transcriptDocument struct {
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
	} `json:"results"`
}

func parseTranscript(data []byte) (string, error) {
	var doc transcriptDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("failed to parse transcript: %w", err)
	}
	if len(doc.Results.Transcripts) == 0 {
		return "", errors.New("transcript has no results")
	}
	text := strings.TrimSpace(doc.Results.Transcripts[0].Transcript)
	if text == "" {
		return "", errors.New("transcript is empty")
	}
	return text, nil
}

// mediaFormatFor maps an object key's extension to a Transcribe media format.
func mediaFormatFor(key string) (types.MediaFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(key), ".")) {
	case "ogg", "oga", "opus":
		return types.MediaFormatOgg, nil
	case "mp3":
		return types.MediaFormatMp3, nil
	case "wav":
		return types.MediaFormatWav, nil
	case "m4a", "mp4":
		return types.MediaFormatMp4, nil
	case "flac":
		return types.MediaFormatFlac, nil
	case "webm":
		return types.MediaFormatWebm, nil
	default:
		return "", fmt.Errorf("unsupported audio format for %q", key)
	}
}
