// Package speech provides the development implementations of the lane audio
// ports. Real recognizers and synthesizers live behind external services;
// these adapters keep the engine runnable without them by treating audio
// payloads as UTF-8 text.
package speech

import (
	"context"

	"drivethru/internal/core/ports"
)

// PassthroughTranscriber reads the audio payload as plain text. Empty or
// whitespace-free payloads count as silence.
type PassthroughTranscriber struct{}

// NewPassthroughTranscriber creates a transcriber for text-carrying audio
// payloads.
func NewPassthroughTranscriber() PassthroughTranscriber {
	return PassthroughTranscriber{}
}

// Transcribe returns the payload as a transcript with full confidence.
func (PassthroughTranscriber) Transcribe(_ context.Context, audio []byte) (ports.Transcript, error) {
	if len(audio) == 0 {
		return ports.Transcript{}, ports.ErrNoSpeechDetected
	}
	return ports.Transcript{Text: string(audio), Confidence: 1.0}, nil
}

// TextSynthesizer renders the reply text itself as the audio payload. It
// honors context cancellation so a barge-in drops the reply audio.
type TextSynthesizer struct{}

// NewTextSynthesizer creates a synthesizer that echoes the reply text.
func NewTextSynthesizer() TextSynthesizer {
	return TextSynthesizer{}
}

// Synthesize returns the text bytes, or the context error on barge-in.
func (TextSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return []byte(text), nil
	}
}
