package search

import (
	"context"
	"errors"

	"github.com/conceptclarity/clarity/internal/gateway"
)

// ErrVoiceUnsupported is returned by Recognize when no speech input is
// available.
var ErrVoiceUnsupported = errors.New("voice input unsupported")

// Voice is a speech-to-text capability.
type Voice interface {
	Supported() bool
	Listen(ctx context.Context) (string, error)
}

// NoVoice is the Voice of environments without speech input.
type NoVoice struct{}

func (NoVoice) Supported() bool { return false }

func (NoVoice) Listen(context.Context) (string, error) { return "", ErrVoiceUnsupported }

// VoiceErrorKind classifies recognition failures.
type VoiceErrorKind string

const (
	VoiceNoSpeech     VoiceErrorKind = "no-speech"
	VoiceAudioCapture VoiceErrorKind = "audio-capture"
	VoiceNotAllowed   VoiceErrorKind = "not-allowed"
	VoiceNetwork      VoiceErrorKind = "network"
)

// VoiceError is a failed recognition.
type VoiceError struct {
	Kind VoiceErrorKind
}

func (e *VoiceError) Error() string {
	return "voice recognition failed: " + string(e.Kind)
}

// VoiceMessage returns the text shown to the user for a voice failure, and
// false when err did not come from voice input.
func VoiceMessage(err error) (string, bool) {
	if errors.Is(err, ErrVoiceUnsupported) {
		return "Voice search is not supported in this terminal.", true
	}
	var verr *VoiceError
	if !errors.As(err, &verr) {
		return "", false
	}
	switch verr.Kind {
	case VoiceNoSpeech:
		return "No speech was detected. Please try again.", true
	case VoiceAudioCapture:
		return "No microphone was found. Ensure it is plugged in.", true
	case VoiceNotAllowed:
		return "Microphone permission blocked. Please allow access.", true
	case VoiceNetwork:
		return "Network error. Voice recognition requires internet connection.", true
	}
	return "Voice recognition error: " + string(verr.Kind), true
}

// VoiceSupported reports whether Recognize can work.
func (c *Controller) VoiceSupported() bool {
	return c.voice != nil && c.voice.Supported()
}

// Recognize listens for a spoken term and searches for it.
func (c *Controller) Recognize(ctx context.Context, level gateway.Level, language string) (*Result, error) {
	if !c.VoiceSupported() {
		return nil, ErrVoiceUnsupported
	}
	text, err := c.voice.Listen(ctx)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, &VoiceError{Kind: VoiceNoSpeech}
	}
	return c.Search(ctx, text, level, language)
}
