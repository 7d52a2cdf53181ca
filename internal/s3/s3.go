package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/windoze95/amitbot-api/internal/apperr"
	"github.com/windoze95/amitbot-api/internal/config"
	"github.com/windoze95/amitbot-api/internal/models"
)

// LoadAWSConfig builds the shared AWS configuration from the app config.
// When AWS access key and secret are provided, static credentials are used;
// otherwise the default credential chain is preserved (IAM role, instance
// profile, etc.) so ECS/EC2 task roles work without explicit keys.
func LoadAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.EnvVars.AWSRegion),
	}

	if cfg.EnvVars.AWSAccessKeyID != "" && cfg.EnvVars.AWSSecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.EnvVars.AWSAccessKeyID,
			cfg.EnvVars.AWSSecretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %v", err)
	}
	return awsCfg, nil
}

// Store is the audio bucket. Every pipeline writes under its own keys, so
// the store needs no locking.
type Store struct {
	bucket    string
	client    *s3.Client
	uploader  *manager.Uploader
	presigner *s3.PresignClient
}

// NewStore creates a Store for bucket from an AWS config.
func NewStore(awsCfg aws.Config, bucket string) *Store {
	client := s3.NewFromConfig(awsCfg)
	return &Store{
		bucket:    bucket,
		client:    client,
		uploader:  manager.NewUploader(client),
		presigner: s3.NewPresignClient(client),
	}
}

// Bucket returns the bucket name.
func (s *Store) Bucket() string {
	return s.bucket
}

// Put uploads data unmodified under key.
func (s *Store) Put(ctx context.Context, key, contentType string, data []byte) (models.StorageRef, error) {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return models.StorageRef{}, apperr.New(apperr.KindStorage, "put "+key, err)
	}
	return models.StorageRef{Bucket: s.bucket, Key: key}, nil
}

// Get downloads the object at ref.
func (s *Store) Get(ctx context.Context, ref models.StorageRef) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
	})
	if err != nil {
		return nil, apperr.New(apperr.KindStorage, "get "+ref.Key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, apperr.New(apperr.KindStorage, "read "+ref.Key, err)
	}
	return data, nil
}

// Delete removes the object at ref.
func (s *Store) Delete(ctx context.Context, ref models.StorageRef) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
	})
	if err != nil {
		return apperr.New(apperr.KindStorage, "delete "+ref.Key, err)
	}
	return nil
}

// PresignGet returns a time-limited download URL for ref.
func (s *Store) PresignGet(ctx context.Context, ref models.StorageRef, ttl time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", apperr.New(apperr.KindStorage, "presign "+ref.Key, err)
	}
	return req.URL, nil
}

// VoiceKey generates the storage key for an inbound voice message. The
// receive timestamp and message id keep keys unique per chat.
func VoiceKey(chatID int64, receivedAt time.Time, messageID int64, ext string) string {
	return fmt.Sprintf("voice/%d/%d-%d.%s", chatID, receivedAt.UnixNano(), messageID, ext)
}

// ReplyKey generates the storage key for synthesized reply audio.
func ReplyKey(chatID int64, createdAt time.Time, id string, ext string) string {
	return fmt.Sprintf("replies/%d/%d-%s.%s", chatID, createdAt.UnixNano(), id, ext)
}

// TranscriptKey generates the storage key a transcription job writes to.
func TranscriptKey(jobID string) string {
	return fmt.Sprintf("transcripts/%s.json", jobID)
}
