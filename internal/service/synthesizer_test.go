package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/windoze95/amitbot-api/internal/ai"
	"github.com/windoze95/amitbot-api/internal/models"
	"github.com/windoze95/amitbot-api/internal/testutil"
)

func TestSynthesize_TextModalityUnchanged(t *testing.T) {
	speech := &testutil.MockSpeechProvider{}
	s := NewResponseSynthesizer(speech, testutil.NewMockObjectStore())

	reply := s.Synthesize(context.Background(), 1, "Top park in Rome:", models.ModalityText)
	if reply != models.NewTextReply("Top park in Rome:") {
		t.Errorf("reply = %+v", reply)
	}
	if speech.Calls.Load() != 0 {
		t.Error("speech provider should not be called for text replies")
	}
}

func TestSynthesize_VoiceStoresAudio(t *testing.T) {
	store := testutil.NewMockObjectStore()
	s := NewResponseSynthesizer(&testutil.MockSpeechProvider{}, store)

	reply := s.Synthesize(context.Background(), 4242, "Sunny in Rome", models.ModalityVoice)
	ref, ok := reply.AudioRef()
	if !ok {
		t.Fatalf("reply has no audio: %+v", reply)
	}
	if reply.Text != "Sunny in Rome" || reply.Modality != models.ModalityVoice {
		t.Errorf("reply = %+v", reply)
	}
	if !strings.HasPrefix(ref.Key, "replies/4242/") || !strings.HasSuffix(ref.Key, ".mp3") {
		t.Errorf("audio key = %q", ref.Key)
	}
	if data, _ := store.Get(context.Background(), ref); string(data) != "mp3" {
		t.Errorf("stored audio = %q", data)
	}
}

func TestSynthesize_CensorsSpokenTextOnly(t *testing.T) {
	speech := &testutil.MockSpeechProvider{}
	s := NewResponseSynthesizer(speech, testutil.NewMockObjectStore())

	reply := s.Synthesize(context.Background(), 1, "what the fuck", models.ModalityVoice)
	if strings.Contains(speech.LastSpoken, "fuck") {
		t.Errorf("spoken text = %q, want profanity censored", speech.LastSpoken)
	}
	if reply.Text != "what the fuck" {
		t.Errorf("reply text = %q, want original", reply.Text)
	}
}

func TestSynthesize_SpeechFailureDegrades(t *testing.T) {
	speech := &testutil.MockSpeechProvider{
		SynthesizeSpeechFunc: func(ctx context.Context, text string) (*ai.SpeechAudio, error) {
			return nil, errors.New("polly throttled")
		},
	}
	s := NewResponseSynthesizer(speech, testutil.NewMockObjectStore())

	reply := s.Synthesize(context.Background(), 1, "Sunny", models.ModalityVoice)
	if !reply.Degraded() {
		t.Fatalf("reply should be degraded: %+v", reply)
	}
	if _, ok := reply.AudioRef(); ok {
		t.Error("degraded reply must not carry audio")
	}
	if reply.Text != "Sunny" || reply.Modality != models.ModalityText {
		t.Errorf("reply = %+v", reply)
	}
}

func TestSynthesize_UploadFailureDegrades(t *testing.T) {
	store := testutil.NewMockObjectStore()
	store.PutErr = errors.New("denied")
	s := NewResponseSynthesizer(&testutil.MockSpeechProvider{}, store)

	reply := s.Synthesize(context.Background(), 1, "Sunny", models.ModalityVoice)
	if !reply.Degraded() {
		t.Errorf("reply should be degraded: %+v", reply)
	}
}
