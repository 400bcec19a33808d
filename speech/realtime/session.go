package realtime

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	oairt "github.com/openai/openai-go/v3/realtime"
)

// sdpEndpoint is where the WebRTC offer is exchanged for an answer.
const sdpEndpoint = "https://api.openai.com/v1/realtime/calls"

// DefaultModel is the transcription model used for wake-word listening.
const DefaultModel = string(oairt.AudioTranscriptionModelGPT4oMiniTranscribe)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// SessionToken holds the ephemeral key from CreateSession.
type SessionToken struct {
	Value     string
	ExpiresAt int64
}

// SessionConfig describes a transcription session.
type SessionConfig struct {
	Model    string
	Language string  // BCP 47 or ISO 639-1; region subtags are stripped
	Prompt   string  // biasing prompt, usually the wake phrase
	Vigor    float64 // VAD sensitivity in [0, 1]
}

// eagernessFor maps the user-facing sensitivity slider onto the API's
// discrete VAD eagerness levels.
func eagernessFor(vigor float64) string {
	switch {
	case vigor <= 0:
		return "auto"
	case vigor < 0.34:
		return "low"
	case vigor < 0.67:
		return "medium"
	default:
		return "high"
	}
}

// isoLanguage reduces a speech-settings language tag like "en-US" to
// the bare code the transcription API expects.
func isoLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	if tag == "" {
		return "en"
	}
	return strings.ToLower(tag)
}

// CreateSession mints an ephemeral transcription session token.
func CreateSession(ctx context.Context, apiKey string, cfg SessionConfig) (*SessionToken, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	transcription := oairt.AudioTranscriptionParam{
		Model:    oairt.AudioTranscriptionModel(model),
		Language: openai.String(isoLanguage(cfg.Language)),
	}
	if cfg.Prompt != "" {
		transcription.Prompt = openai.String(cfg.Prompt)
	}

	params := oairt.ClientSecretNewParams{
		Session: oairt.ClientSecretNewParamsSessionUnion{
			OfTranscription: &oairt.RealtimeTranscriptionSessionCreateRequestParam{
				Audio: oairt.RealtimeTranscriptionSessionAudioParam{
					Input: oairt.RealtimeTranscriptionSessionAudioInputParam{
						TurnDetection: oairt.RealtimeTranscriptionSessionAudioInputTurnDetectionUnionParam{
							OfSemanticVad: &oairt.RealtimeTranscriptionSessionAudioInputTurnDetectionSemanticVadParam{
								Type:      "semantic_vad",
								Eagerness: eagernessFor(cfg.Vigor),
							},
						},
						Transcription: transcription,
					},
				},
			},
		},
	}
	resp, err := client.Realtime.ClientSecrets.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create client secret: %w", err)
	}
	return &SessionToken{Value: resp.Value, ExpiresAt: resp.ExpiresAt}, nil
}

// ExchangeSDP posts the local SDP offer and returns the remote answer.
func ExchangeSDP(ctx context.Context, offer, ephemeralKey string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sdpEndpoint, bytes.NewBufferString(offer))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+ephemeralKey)
	req.Header.Set("Content-Type", "application/sdp")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("api error (status %d): %s", resp.StatusCode, body)
	}
	return string(body), nil
}
