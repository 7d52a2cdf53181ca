package ai

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
)

// PollyProvider implements SpeechProvider using Amazon Polly.
type PollyProvider struct {
	client  *polly.Client
	voiceID string
}

// NewPollyProvider creates an Amazon Polly speech provider.
func NewPollyProvider(awsCfg aws.Config, voiceID string) *PollyProvider {
	return &PollyProvider{
		client:  polly.NewFromConfig(awsCfg),
		voiceID: voiceID,
	}
}

// SynthesizeSpeech converts text to MP3 audio.
func (p *PollyProvider) SynthesizeSpeech(ctx context.Context, text string) (*SpeechAudio, error) {
	if text == "" {
		return nil, errors.New("speech text is empty")
	}

	out, err := p.client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Text:         aws.String(text),
		OutputFormat: types.OutputFormatMp3,
		VoiceId:      types.VoiceId(p.voiceID),
	})
	if err != nil {
		return nil, fmt.Errorf("polly API error: %w", err)
	}
	defer out.AudioStream.Close()

	data, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return nil, fmt.Errorf("failed to read polly audio: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("polly returned empty audio")
	}
	return &SpeechAudio{Data: data, ContentType: "audio/mpeg", Ext: "mp3"}, nil
}
