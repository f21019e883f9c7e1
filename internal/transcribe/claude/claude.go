package claude

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/menuorder/internal/transcribe"
)

// maxTokens leaves room for a long daily menu (≈60 lines of ≈15 tokens).
const maxTokens = 2048

type ClaudeTranscriber struct {
	client *anthropic.Client
	model  string
}

func NewClaudeTranscriber(apiKey, model string, opts ...anthropic.ClientOption) *ClaudeTranscriber {
	return &ClaudeTranscriber{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

func (c *ClaudeTranscriber) Transcribe(ctx context.Context, r io.Reader, mimeType string) (*transcribe.Transcription, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.Message{{
			Role: anthropic.RoleUser,
			Content: []anthropic.MessageContent{
				anthropic.NewImageMessageContent(anthropic.NewMessageContentSource(
					anthropic.MessagesContentSourceTypeBase64,
					normaliseMIME(mimeType),
					base64.StdEncoding.EncodeToString(imageData),
				)),
				anthropic.NewTextMessageContent(transcribe.Prompt),
			},
		}},
	})
	if err != nil {
		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("claude rejected request (%s): %w", apiErr.Type, err)
		}
		return nil, fmt.Errorf("failed to call claude: %w", err)
	}

	var sb strings.Builder
	for _, blk := range resp.Content {
		if blk.Type == anthropic.MessagesContentTypeText {
			sb.WriteString(blk.GetText())
		}
	}
	raw := sb.String()

	return &transcribe.Transcription{
		Text:        transcribe.CleanResponse(raw),
		RawResponse: raw,
	}, nil
}

// normaliseMIME maps browser MIME types to the values the Anthropic API accepts.
// The API accepts only jpeg, png, gif, and webp; anything else is sent as jpeg.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
