package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/windoze95/amitbot-api/internal/ai"
	"github.com/windoze95/amitbot-api/internal/models"
	"github.com/windoze95/amitbot-api/internal/telegram"
)

// --- MockClassifier ---

// MockClassifier is a mock implementation of ai.IntentClassifier.
type MockClassifier struct {
	ClassifyIntentFunc func(ctx context.Context, text string, sessionID string) (*ai.Classification, error)
	Calls              atomic.Int32
}

func (m *MockClassifier) ClassifyIntent(ctx context.Context, text string, sessionID string) (*ai.Classification, error) {
	m.Calls.Add(1)
	if m.ClassifyIntentFunc != nil {
		return m.ClassifyIntentFunc(ctx, text, sessionID)
	}
	return nil, fmt.Errorf("ClassifyIntent not configured")
}

// --- MockTranscriptionProvider ---

// MockTranscriptionProvider is a mock implementation of ai.TranscriptionProvider.
type MockTranscriptionProvider struct {
	StartJobFunc   func(ctx context.Context, ref models.StorageRef) (string, error)
	PollStatusFunc func(ctx context.Context, jobID string) (*ai.JobReport, error)
	StartCalls     atomic.Int32
	PollCalls      atomic.Int32
}

func (m *MockTranscriptionProvider) StartJob(ctx context.Context, ref models.StorageRef) (string, error) {
	m.StartCalls.Add(1)
	if m.StartJobFunc != nil {
		return m.StartJobFunc(ctx, ref)
	}
	return "job-1", nil
}

func (m *MockTranscriptionProvider) PollStatus(ctx context.Context, jobID string) (*ai.JobReport, error) {
	m.PollCalls.Add(1)
	if m.PollStatusFunc != nil {
		return m.PollStatusFunc(ctx, jobID)
	}
	return nil, fmt.Errorf("PollStatus not configured")
}

// --- MockSpeechProvider ---

// MockSpeechProvider is a mock implementation of ai.SpeechProvider.
type MockSpeechProvider struct {
	SynthesizeSpeechFunc func(ctx context.Context, text string) (*ai.SpeechAudio, error)
	Calls                atomic.Int32

	mu         sync.Mutex
	LastSpoken string
}

func (m *MockSpeechProvider) SynthesizeSpeech(ctx context.Context, text string) (*ai.SpeechAudio, error) {
	m.Calls.Add(1)
	m.mu.Lock()
	m.LastSpoken = text
	m.mu.Unlock()
	if m.SynthesizeSpeechFunc != nil {
		return m.SynthesizeSpeechFunc(ctx, text)
	}
	return &ai.SpeechAudio{Data: []byte("mp3"), ContentType: "audio/mpeg", Ext: "mp3"}, nil
}

// --- MockAudioSource ---

// MockAudioSource is a mock implementation of service.AudioSource.
type MockAudioSource struct {
	DownloadFunc func(ctx context.Context, voice models.VoiceHandle) ([]byte, error)
	Calls        atomic.Int32
}

func (m *MockAudioSource) Download(ctx context.Context, voice models.VoiceHandle) ([]byte, error) {
	m.Calls.Add(1)
	if m.DownloadFunc != nil {
		return m.DownloadFunc(ctx, voice)
	}
	return []byte("OggS-audio"), nil
}

// --- MockObjectStore ---

// MockObjectStore is an in-memory object store.
type MockObjectStore struct {
	mu      sync.Mutex
	Bucket  string
	Objects map[string][]byte
	Deleted []string

	PutErr     error
	DeleteErr  error
	PresignErr error

	// DeleteDone receives the key of every Delete call when non-nil.
	DeleteDone chan string
}

// NewMockObjectStore creates an empty store for bucket "test-bucket".
func NewMockObjectStore() *MockObjectStore {
	return &MockObjectStore{
		Bucket:  "test-bucket",
		Objects: make(map[string][]byte),
	}
}

func (m *MockObjectStore) Put(ctx context.Context, key, contentType string, data []byte) (models.StorageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return models.StorageRef{}, m.PutErr
	}
	m.Objects[key] = append([]byte(nil), data...)
	return models.StorageRef{Bucket: m.Bucket, Key: key}, nil
}

func (m *MockObjectStore) Get(ctx context.Context, ref models.StorageRef) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.Objects[ref.Key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", ref.Key)
	}
	return data, nil
}

func (m *MockObjectStore) Delete(ctx context.Context, ref models.StorageRef) error {
	m.mu.Lock()
	err := m.DeleteErr
	if err == nil {
		delete(m.Objects, ref.Key)
		m.Deleted = append(m.Deleted, ref.Key)
	}
	done := m.DeleteDone
	m.mu.Unlock()

	if done != nil {
		done <- ref.Key
	}
	return err
}

func (m *MockObjectStore) PresignGet(ctx context.Context, ref models.StorageRef, ttl time.Duration) (string, error) {
	if m.PresignErr != nil {
		return "", m.PresignErr
	}
	return fmt.Sprintf("https://%s.example.com/%s?expires=%d", ref.Bucket, ref.Key, int(ttl.Seconds())), nil
}

// Keys returns the stored keys.
func (m *MockObjectStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.Objects))
	for k := range m.Objects {
		keys = append(keys, k)
	}
	return keys
}

// --- Domain providers ---

// MockResultsProvider is a mock implementation of domain.ResultsProvider.
type MockResultsProvider struct {
	LookupResultsFunc func(ctx context.Context, q models.ResultsQuery) (string, error)
	Calls             atomic.Int32
}

func (m *MockResultsProvider) LookupResults(ctx context.Context, q models.ResultsQuery) (string, error) {
	m.Calls.Add(1)
	if m.LookupResultsFunc != nil {
		return m.LookupResultsFunc(ctx, q)
	}
	return "", fmt.Errorf("LookupResults not configured")
}

// MockWeatherProvider is a mock implementation of domain.WeatherProvider.
type MockWeatherProvider struct {
	LookupWeatherFunc func(ctx context.Context, q models.WeatherQuery) (string, error)
	Calls             atomic.Int32
}

func (m *MockWeatherProvider) LookupWeather(ctx context.Context, q models.WeatherQuery) (string, error) {
	m.Calls.Add(1)
	if m.LookupWeatherFunc != nil {
		return m.LookupWeatherFunc(ctx, q)
	}
	return "", fmt.Errorf("LookupWeather not configured")
}

// MockPlacesProvider is a mock implementation of domain.PlacesProvider.
type MockPlacesProvider struct {
	LookupPlacesFunc func(ctx context.Context, q models.PlacesQuery) (string, error)
	Calls            atomic.Int32
}

func (m *MockPlacesProvider) LookupPlaces(ctx context.Context, q models.PlacesQuery) (string, error) {
	m.Calls.Add(1)
	if m.LookupPlacesFunc != nil {
		return m.LookupPlacesFunc(ctx, q)
	}
	return "", fmt.Errorf("LookupPlaces not configured")
}

// --- MockInteractionRepo ---

// MockInteractionRepo is an in-memory mock implementation of repository.InteractionRepo.
type MockInteractionRepo struct {
	mu           sync.Mutex
	Interactions []models.Interaction
	CreateErr    error
}

func (m *MockInteractionRepo) CreateInteraction(ctx context.Context, interaction *models.Interaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.Interactions = append(m.Interactions, *interaction)
	return nil
}

// All returns a copy of the recorded interactions.
func (m *MockInteractionRepo) All() []models.Interaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Interaction(nil), m.Interactions...)
}

// --- MockMessenger ---

// SentMessage is one message delivered through MockMessenger.
type SentMessage struct {
	ChatID   int64
	Text     string
	AudioURL string
	Markup   *telegram.InlineKeyboardMarkup
}

// MockMessenger records outgoing Telegram calls.
type MockMessenger struct {
	mu       sync.Mutex
	Sent     []SentMessage
	Answered []string
	SendErr  error
	AudioErr error
}

func (m *MockMessenger) SendMessage(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Sent = append(m.Sent, SentMessage{ChatID: chatID, Text: text, Markup: markup})
	return nil
}

func (m *MockMessenger) SendAudio(ctx context.Context, chatID int64, audioURL, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AudioErr != nil {
		return m.AudioErr
	}
	m.Sent = append(m.Sent, SentMessage{ChatID: chatID, Text: caption, AudioURL: audioURL})
	return nil
}

func (m *MockMessenger) AnswerCallbackQuery(ctx context.Context, callbackID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Answered = append(m.Answered, callbackID)
	return nil
}

// Messages returns a copy of everything sent.
func (m *MockMessenger) Messages() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.Sent...)
}
