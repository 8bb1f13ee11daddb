package ports

import (
	"context"
	"errors"
)

var (
	// ErrNoSpeechDetected is returned when an audio frame contains no usable
	// speech. The turn is treated as silence.
	ErrNoSpeechDetected = errors.New("no speech detected")
)

// Transcript is the text form of one customer utterance.
type Transcript struct {
	Text string
	// Confidence is the recognizer's confidence in [0, 1].
	Confidence float64
}

// Transcriber converts raw lane audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (Transcript, error)
}

// SpeechSynthesizer renders a response phrase into audio for the lane
// speaker. Synthesis honors context cancellation so a barge-in can cut a
// response short.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
