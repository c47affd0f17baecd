// Package speech provides the speech adapter: transcription of locally
// stored audio files and synthesis of answers back to audio files.
package speech

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"google.golang.org/api/option"
	speechv1 "google.golang.org/api/speech/v1"
	texttospeechv1 "google.golang.org/api/texttospeech/v1"
)

// Transcription is the result of a speech-to-text call. Confidence is the
// engine's self-reported certainty in [0,1].
type Transcription struct {
	Text       string
	Language   string
	Confidence float64
}

// Engine transcribes and synthesizes speech.
type Engine interface {
	// Transcribe converts a local audio file to text. languageHint is a
	// BCP-47 code guiding recognition.
	Transcribe(ctx context.Context, audioPath, languageHint string) (*Transcription, error)

	// Synthesize converts text to speech in the given language and returns
	// the path of the locally written audio file. The caller owns the file
	// and must remove it after use.
	Synthesize(ctx context.Context, text, languageCode, messageID string) (string, error)
}

// GoogleEngine implements Engine using the Google Cloud Speech and
// Text-to-Speech APIs.
type GoogleEngine struct {
	stt      *speechv1.Service
	tts      *texttospeechv1.Service
	audioDir string
}

// NewGoogle creates a Google-backed speech engine writing synthesized audio
// under audioDir.
func NewGoogle(ctx context.Context, apiKey, audioDir string) (*GoogleEngine, error) {
	if err := os.MkdirAll(audioDir, 0755); err != nil {
		return nil, fmt.Errorf("create audio directory: %w", err)
	}

	stt, err := speechv1.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create speech service: %w", err)
	}
	tts, err := texttospeechv1.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create text-to-speech service: %w", err)
	}

	return &GoogleEngine{stt: stt, tts: tts, audioDir: audioDir}, nil
}

// Transcribe converts a local audio file to text.
func (g *GoogleEngine) Transcribe(ctx context.Context, audioPath, languageHint string) (*Transcription, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}

	resp, err := g.stt.Speech.Recognize(&speechv1.RecognizeRequest{
		Config: &speechv1.RecognitionConfig{
			Encoding:     "MP3",
			LanguageCode: languageHint,
		},
		Audio: &speechv1.RecognitionAudio{
			Content: base64.StdEncoding.EncodeToString(data),
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("recognize speech: %w", err)
	}

	if len(resp.Results) == 0 || len(resp.Results[0].Alternatives) == 0 {
		return &Transcription{Language: languageHint}, nil
	}

	result := resp.Results[0]
	alt := result.Alternatives[0]
	language := result.LanguageCode
	if language == "" {
		language = languageHint
	}

	return &Transcription{
		Text:       alt.Transcript,
		Language:   language,
		Confidence: alt.Confidence,
	}, nil
}

// Synthesize converts text to a local MP3 file and returns its path.
func (g *GoogleEngine) Synthesize(ctx context.Context, text, languageCode, messageID string) (string, error) {
	resp, err := g.tts.Text.Synthesize(&texttospeechv1.SynthesizeSpeechRequest{
		Input: &texttospeechv1.SynthesisInput{Text: text},
		Voice: &texttospeechv1.VoiceSelectionParams{LanguageCode: languageCode},
		AudioConfig: &texttospeechv1.AudioConfig{
			AudioEncoding: "MP3",
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("synthesize speech: %w", err)
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return "", fmt.Errorf("decode synthesized audio: %w", err)
	}

	name := messageID
	if name == "" {
		name = uuid.NewString()
	}
	path := filepath.Join(g.audioDir, name+"_audio_response.mp3")
	if err := os.WriteFile(path, audio, 0644); err != nil {
		return "", fmt.Errorf("write synthesized audio: %w", err)
	}

	return path, nil
}
