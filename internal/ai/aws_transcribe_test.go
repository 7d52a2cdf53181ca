package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
	"github.com/aws/smithy-go"
	"github.com/windoze95/amitbot-api/internal/apperr"
	"github.com/windoze95/amitbot-api/internal/models"
)

type fakeTranscribeAPI struct {
	startInput *transcribe.StartTranscriptionJobInput
	startErr   error
	job        *types.TranscriptionJob
	getErr     error
}

func (f *fakeTranscribeAPI) StartTranscriptionJob(ctx context.Context, in *transcribe.StartTranscriptionJobInput, _ ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error) {
	f.startInput = in
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &transcribe.StartTranscriptionJobOutput{}, nil
}

func (f *fakeTranscribeAPI) GetTranscriptionJob(ctx context.Context, in *transcribe.GetTranscriptionJobInput, _ ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &transcribe.GetTranscriptionJobOutput{TranscriptionJob: f.job}, nil
}

type fakeObjectReader struct {
	objects map[string][]byte
}

func (f *fakeObjectReader) Get(ctx context.Context, ref models.StorageRef) ([]byte, error) {
	data, ok := f.objects[ref.Key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func newTestTranscribeProvider(api *fakeTranscribeAPI, store *fakeObjectReader) *TranscribeProvider {
	return &TranscribeProvider{client: api, store: store, bucket: "audio", language: "en-US"}
}

func TestMediaFormatFor(t *testing.T) {
	tests := []struct {
		key  string
		want types.MediaFormat
	}{
		{"voice/1/2-3.ogg", types.MediaFormatOgg},
		{"voice/1/2-3.OGA", types.MediaFormatOgg},
		{"a.mp3", types.MediaFormatMp3},
		{"a.wav", types.MediaFormatWav},
		{"a.m4a", types.MediaFormatMp4},
		{"a.flac", types.MediaFormatFlac},
		{"a.webm", types.MediaFormatWebm},
	}
	for _, tt := range tests {
		got, err := mediaFormatFor(tt.key)
		if err != nil {
			t.Errorf("mediaFormatFor(%q) error: %v", tt.key, err)
			continue
		}
		if got != tt.want {
			t.Errorf("mediaFormatFor(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}

	if _, err := mediaFormatFor("voice/1/2-3.txt"); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestStartJob_SubmitsStorageURI(t *testing.T) {
	api := &fakeTranscribeAPI{}
	p := newTestTranscribeProvider(api, &fakeObjectReader{})

	jobID, err := p.StartJob(context.Background(), models.StorageRef{Bucket: "audio", Key: "voice/1/2-3.ogg"})
	if err != nil {
		t.Fatalf("StartJob error: %v", err)
	}
	if jobID == "" {
		t.Fatal("StartJob returned empty job id")
	}
	if got := aws.ToString(api.startInput.Media.MediaFileUri); got != "s3://audio/voice/1/2-3.ogg" {
		t.Errorf("MediaFileUri = %q", got)
	}
	if aws.ToString(api.startInput.TranscriptionJobName) != jobID {
		t.Error("job name should match returned job id")
	}
	if got := aws.ToString(api.startInput.OutputKey); got != "transcripts/"+jobID+".json" {
		t.Errorf("OutputKey = %q", got)
	}
}

func TestPollStatus_MapsStatuses(t *testing.T) {
	tests := []struct {
		status types.TranscriptionJobStatus
		want   models.JobStatus
	}{
		{types.TranscriptionJobStatusQueued, models.JobStatusQueued},
		{types.TranscriptionJobStatusInProgress, models.JobStatusRunning},
		{types.TranscriptionJobStatusFailed, models.JobStatusFailed},
	}
	for _, tt := range tests {
		api := &fakeTranscribeAPI{job: &types.TranscriptionJob{TranscriptionJobStatus: tt.status}}
		p := newTestTranscribeProvider(api, &fakeObjectReader{})
		report, err := p.PollStatus(context.Background(), "job-1")
		if err != nil {
			t.Fatalf("PollStatus(%s) error: %v", tt.status, err)
		}
		if report.Status != tt.want {
			t.Errorf("PollStatus(%s) = %q, want %q", tt.status, report.Status, tt.want)
		}
	}
}

func TestPollStatus_CompletedReadsTranscript(t *testing.T) {
	api := &fakeTranscribeAPI{job: &types.TranscriptionJob{TranscriptionJobStatus: types.TranscriptionJobStatusCompleted}}
	store := &fakeObjectReader{objects: map[string][]byte{
		"transcripts/job-1.json": []byte(`{"results":{"transcripts":[{"transcript":" weather in Haifa tomorrow "}]}}`),
	}}
	p := newTestTranscribeProvider(api, store)

	report, err := p.PollStatus(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("PollStatus error: %v", err)
	}
	if report.Status != models.JobStatusSucceeded {
		t.Fatalf("Status = %q, want succeeded", report.Status)
	}
	if report.Text != "weather in Haifa tomorrow" {
		t.Errorf("Text = %q", report.Text)
	}
}

func TestPollStatus_EmptyTranscriptFails(t *testing.T) {
	api := &fakeTranscribeAPI{job: &types.TranscriptionJob{TranscriptionJobStatus: types.TranscriptionJobStatusCompleted}}
	store := &fakeObjectReader{objects: map[string][]byte{
		"transcripts/job-1.json": []byte(`{"results":{"transcripts":[]}}`),
	}}
	p := newTestTranscribeProvider(api, store)

	report, err := p.PollStatus(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("PollStatus error: %v", err)
	}
	if report.Status != models.JobStatusFailed {
		t.Errorf("Status = %q, want failed", report.Status)
	}
}

func TestPollStatus_ThrottleIsTransient(t *testing.T) {
	api := &fakeTranscribeAPI{getErr: &smithy.GenericAPIError{Code: "ThrottlingException"}}
	p := newTestTranscribeProvider(api, &fakeObjectReader{})

	_, err := p.PollStatus(context.Background(), "job-1")
	if !apperr.IsRetryable(err) {
		t.Errorf("throttled poll should be retryable, got %v", err)
	}
}

func TestPollStatus_ClientErrorNotTransient(t *testing.T) {
	api := &fakeTranscribeAPI{getErr: &smithy.GenericAPIError{Code: "BadRequestException", Fault: smithy.FaultClient}}
	p := newTestTranscribeProvider(api, &fakeObjectReader{})

	_, err := p.PollStatus(context.Background(), "job-1")
	if err == nil || apperr.IsRetryable(err) {
		t.Errorf("client error should fail without retry, got %v", err)
	}
}
