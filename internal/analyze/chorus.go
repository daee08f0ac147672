package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

const chorusSystemPrompt = `You analyze songs to locate the chorus. You receive per-second audio
features (rms: loudness, zcr: zero-cross rate, peak: peak amplitude) and,
when available, time-coded lyrics. The chorus is typically the loudest,
most repeated section. Respond with a JSON object of the form
{"start_time": <seconds>, "end_time": <seconds>} and nothing else. The
segment should be 15 to 30 seconds long.`

// Chorus is the time window the model selected.
type Chorus struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// Duration returns the window length in seconds.
func (c Chorus) Duration() float64 {
	return c.EndTime - c.StartTime
}

// ChorusPicker asks a chat model to place the chorus window given audio
// features and optional lyrics.
type ChorusPicker struct {
	client *openai.Client
	model  string
	logger zerolog.Logger
}

func NewChorusPicker(client *openai.Client, model string, logger zerolog.Logger) *ChorusPicker {
	return &ChorusPicker{client: client, model: model, logger: logger}
}

// Pick sends the feature series and lyrics to the model and parses its
// selection. Lyrics may be empty.
func (p *ChorusPicker) Pick(ctx context.Context, features []SecondFeatures, lyrics string) (*Chorus, error) {
	if len(features) == 0 {
		return nil, errors.New("no audio features to analyze")
	}

	payload, err := json.Marshal(features)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode audio features")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Audio features (%d seconds):\n%s\n", len(features), payload)
	if lyrics != "" {
		fmt.Fprintf(&sb, "\nLyrics:\n%s\n", lyrics)
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: chorusSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: sb.String()},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "chorus selection request failed")
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chorus selection returned no choices")
	}

	chorus, err := parseChorus([]byte(resp.Choices[0].Message.Content))
	if err != nil {
		return nil, err
	}

	p.logger.Info().
		Float64("start", chorus.StartTime).
		Float64("end", chorus.EndTime).
		Msg("chorus selected")
	return chorus, nil
}

func parseChorus(raw []byte) (*Chorus, error) {
	var chorus Chorus
	if err := json.Unmarshal(raw, &chorus); err != nil {
		return nil, errors.Wrap(err, "failed to parse chorus selection")
	}
	if chorus.StartTime < 0 || chorus.EndTime <= chorus.StartTime {
		return nil, errors.Errorf("invalid chorus window [%f, %f]", chorus.StartTime, chorus.EndTime)
	}
	return &chorus, nil
}
