package transcribe

import (
	"context"
	"io"
)

// Prompt is the shared instruction sent by all transcription backends. The
// output is fed to the menu parser, so the model must keep the vendor's own
// line layout, numbering, separator lines and RM prices.
const Prompt = `This image is a screenshot of a food vendor's daily menu from a chat app.
Transcribe the text exactly as written, line by line. Keep numbering such as "1.",
prices such as "RM 8.50", and decorative separator lines such as """""" or =====.
Do not translate, summarise, reorder or add anything. Respond with the text only.`

type Transcriber interface {
	Transcribe(ctx context.Context, r io.Reader, mimeType string) (*Transcription, error)
}

type Transcription struct {
	Text        string
	RawResponse string
}
