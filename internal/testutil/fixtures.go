package testutil

import (
	"time"

	"github.com/windoze95/amitbot-api/internal/ai"
	"github.com/windoze95/amitbot-api/internal/models"
)

// TestChatID is the chat every fixture message belongs to.
const TestChatID int64 = 4242

// TestTextMessage creates a text message from TestChatID.
func TestTextMessage(text string) models.InboundMessage {
	msg, err := models.NewTextMessage(TestChatID, 11, text, time.Unix(1700000000, 0))
	if err != nil {
		panic(err)
	}
	return msg
}

// TestVoiceMessage creates an ogg voice message from TestChatID.
func TestVoiceMessage() models.InboundMessage {
	msg, err := models.NewVoiceMessage(TestChatID, 12, models.VoiceHandle{
		FileID:   "voice-file-1",
		Format:   "ogg",
		MimeType: "audio/ogg",
		Duration: 3 * time.Second,
	}, time.Unix(1700000000, 0))
	if err != nil {
		panic(err)
	}
	return msg
}

// Classified returns a confident classification.
func Classified(intent string, slots map[string]string) *ai.Classification {
	if slots == nil {
		slots = map[string]string{}
	}
	return &ai.Classification{IntentName: intent, Slots: slots, Confidence: 0.9}
}

// SucceededReport returns a finished transcription report.
func SucceededReport(text string) *ai.JobReport {
	return &ai.JobReport{Status: models.JobStatusSucceeded, Text: text}
}

// RunningReport returns an in-progress transcription report.
func RunningReport() *ai.JobReport {
	return &ai.JobReport{Status: models.JobStatusRunning}
}
