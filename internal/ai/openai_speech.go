package ai

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAISpeechProvider implements SpeechProvider using OpenAI text-to-speech.
type OpenAISpeechProvider struct {
	apiKey string
}

// NewOpenAISpeechProvider creates a new OpenAI text-to-speech provider.
func NewOpenAISpeechProvider(apiKey string) *OpenAISpeechProvider {
	return &OpenAISpeechProvider{apiKey: apiKey}
}

// SynthesizeSpeech converts text to MP3 audio with the tts-1 model.
func (p *OpenAISpeechProvider) SynthesizeSpeech(ctx context.Context, text string) (*SpeechAudio, error) {
	if text == "" {
		return nil, errors.New("speech text is empty")
	}

	client := openai.NewClient(p.apiKey)
	resp, err := client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          openai.VoiceAlloy,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI speech API error: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenAI speech audio: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("OpenAI speech returned empty audio")
	}
	return &SpeechAudio{Data: data, ContentType: "audio/mpeg", Ext: "mp3"}, nil
}
