package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/saarthi-ai/saarthi/internal/config"
	"github.com/saarthi-ai/saarthi/internal/domain"
	"github.com/saarthi-ai/saarthi/internal/identity"
	"github.com/saarthi-ai/saarthi/internal/session"
	"github.com/saarthi-ai/saarthi/internal/speech"
	"github.com/saarthi-ai/saarthi/internal/splitter"
	"github.com/saarthi-ai/saarthi/internal/store"
	"github.com/saarthi-ai/saarthi/internal/translate"
)

// FallbackResponse is stored as the answer when a transcription's
// confidence falls below the gate. It replaces only what is stored as the
// answer, never the returned transcription or score.
const FallbackResponse = "Apologize! I could not understand. Please try again."

// DefaultConfidenceThreshold gates whether a transcription is trusted as a
// query. The boundary is inclusive: a score equal to the threshold takes
// the high-confidence branch.
const DefaultConfidenceThreshold = 0.7

// TranscriptionResult is the outcome of transcribing one voice input.
type TranscriptionResult struct {
	MessageID       string
	HeardInputQuery string
	HeardInputAudio string
	Confidence      float64
	LowConfidence   bool
}

// VoiceQueryResult combines a transcription with the answer produced by
// delegating the transcribed text to the query pipeline.
type VoiceQueryResult struct {
	TranscriptionResult
	Answered          bool
	Response          string
	FollowUpQuestions []splitter.FollowUp
}

// Voice orchestrates voice input: audio storage, transcription, confidence
// gating, delegation to the query pipeline, and the audio round-trip.
type Voice struct {
	sessions   *session.Manager
	repo       store.Repository
	engine     speech.Engine
	translator translate.Translator
	query      *Query
	threshold  float64
	audioDir   string
	nativeBCP  string
	nativeCode string
}

// NewVoice creates a voice pipeline. A non-positive threshold falls back
// to the default.
func NewVoice(sessions *session.Manager, repo store.Repository, engine speech.Engine, translator translate.Translator, query *Query, cfg *config.Config) *Voice {
	threshold := cfg.ConfidenceThreshold
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	return &Voice{
		sessions:   sessions,
		repo:       repo,
		engine:     engine,
		translator: translator,
		query:      query,
		threshold:  threshold,
		audioDir:   cfg.AudioDir,
		nativeBCP:  cfg.NativeLanguageBCP,
		nativeCode: cfg.NativeLanguageCode,
	}
}

// Transcribe stores the uploaded audio locally, transcribes it, applies the
// confidence gate, and records the message. The local audio file is removed
// on every exit path. On low confidence the fallback string is stored in
// both response slots while the raw transcription and score are returned
// unmodified.
func (v *Voice) Transcribe(ctx context.Context, profile *identity.Profile, audioBase64, languageHint string) (result *TranscriptionResult, err error) {
	if languageHint == "" {
		languageHint = v.nativeBCP
	}

	audioPath, err := v.storeInputAudio(audioBase64)
	if err != nil {
		return nil, err
	}
	defer removeAudioFile(audioPath)

	patch := &store.MessagePatch{}
	var messageID string
	defer func() {
		if messageID == "" {
			return
		}
		if ferr := v.sessions.ApplyPatch(ctx, messageID, patch); ferr != nil {
			slog.Error("finalize message patch failed", "message_id", messageID, "error", ferr)
			if err == nil {
				err = ferr
			}
		}
	}()

	patch.InputType = strPtr(domain.InputTypeVoice)
	patch.MessageInputTime = timeNow()
	patch.SpeechToTextStart = timeNow()
	transcription, err := v.engine.Transcribe(ctx, audioPath, languageHint)
	if err != nil {
		return nil, err
	}
	patch.SpeechToTextEnd = timeNow()

	result = &TranscriptionResult{
		HeardInputQuery: transcription.Text,
		Confidence:      transcription.Confidence,
	}

	if transcription.Confidence < v.threshold {
		result.LowConfidence = true
		patch.MessageResponse = strPtr(FallbackResponse)
		patch.MessageTranslatedResponse = strPtr(FallbackResponse)
		patch.MessageResponseTime = timeNow()
		slog.Info("transcription below confidence threshold",
			"confidence", transcription.Confidence, "threshold", v.threshold)
	}

	user, err := v.sessions.ResolveUser(ctx, profile)
	if err != nil {
		return nil, err
	}
	conv, err := v.sessions.LatestConversation(ctx, user.ID, transcription.Text)
	if err != nil {
		return nil, err
	}
	messageID, err = v.sessions.RecordIncomingMessage(ctx, conv.ID, transcription.Text)
	if err != nil {
		return nil, err
	}
	result.MessageID = messageID

	if !result.LowConfidence {
		echo, err := v.echoAudio(ctx, transcription.Text, messageID)
		if err != nil {
			return nil, err
		}
		result.HeardInputAudio = echo
	}

	return result, nil
}

// Run executes the full voice query: transcription, then — at or above the
// confidence threshold — delegation of the transcribed text to the query
// pipeline as if it were typed.
func (v *Voice) Run(ctx context.Context, profile *identity.Profile, audioBase64, languageHint string) (*VoiceQueryResult, error) {
	transcribed, err := v.Transcribe(ctx, profile, audioBase64, languageHint)
	if err != nil {
		return nil, err
	}

	result := &VoiceQueryResult{TranscriptionResult: *transcribed}
	if transcribed.LowConfidence {
		return result, nil
	}

	answered, err := v.query.Run(ctx, profile, transcribed.HeardInputQuery, domain.InputTypeVoice)
	if err != nil {
		return nil, err
	}

	result.Answered = true
	result.Response = answered.Response
	result.FollowUpQuestions = answered.FollowUpQuestions
	return result, nil
}

// SynthesizeResponse converts an answer back to speech in the language the
// message's input was detected in, records the synthesis timestamps on the
// message, and returns the audio base64-encoded. The synthesized file is
// removed after encoding on every exit path.
func (v *Voice) SynthesizeResponse(ctx context.Context, text, messageID string) (audio string, err error) {
	language := v.nativeCode

	patch := &store.MessagePatch{}
	var patchTarget string
	defer func() {
		if patchTarget == "" {
			return
		}
		if ferr := v.sessions.ApplyPatch(ctx, patchTarget, patch); ferr != nil {
			slog.Error("finalize message patch failed", "message_id", patchTarget, "error", ferr)
			if err == nil {
				err = ferr
			}
		}
	}()

	if messageID != "" {
		msg, err := v.repo.GetMessage(ctx, messageID)
		if err != nil {
			return "", err
		}
		if msg != nil {
			patchTarget = msg.ID
			if msg.InputLanguageDetected != "" {
				language = msg.InputLanguageDetected
			}
		}
	}
	if patchTarget == "" {
		// Unknown message: detect the language of the text itself.
		_, detected, derr := v.translator.DetectAndTranslate(ctx, text)
		if derr != nil {
			return "", derr
		}
		language = detected
	}

	patch.TextToSpeechStart = timeNow()
	audioPath, err := v.engine.Synthesize(ctx, text, language, messageID)
	if err != nil {
		return "", err
	}
	defer removeAudioFile(audioPath)
	patch.TextToSpeechEnd = timeNow()

	return encodeAudioFile(audioPath)
}

// echoAudio translates the heard transcription to the native language,
// synthesizes it, and returns it base64-encoded for the caller to play
// back. The synthesized file is removed after encoding.
func (v *Voice) echoAudio(ctx context.Context, text, messageID string) (echo string, err error) {
	toSpeak := text
	if v.nativeCode != config.PivotLanguageCode {
		toSpeak, err = v.translator.Translate(ctx, text, v.nativeCode)
		if err != nil {
			return "", fmt.Errorf("translate heard input: %w", err)
		}
	}

	audioPath, err := v.engine.Synthesize(ctx, toSpeak, v.nativeCode, messageID)
	if err != nil {
		return "", err
	}
	defer removeAudioFile(audioPath)

	return encodeAudioFile(audioPath)
}

// storeInputAudio decodes the uploaded base64 audio to a uniquely named
// local file and returns its path. The caller owns the file.
func (v *Voice) storeInputAudio(audioBase64 string) (string, error) {
	audio, err := base64.StdEncoding.DecodeString(audioBase64)
	if err != nil {
		return "", fmt.Errorf("decode input audio: %w", err)
	}

	if err := os.MkdirAll(v.audioDir, 0755); err != nil {
		return "", fmt.Errorf("create audio directory: %w", err)
	}

	path := filepath.Join(v.audioDir, uuid.NewString()+"_audio_input.mp3")
	if err := os.WriteFile(path, audio, 0644); err != nil {
		return "", fmt.Errorf("store input audio: %w", err)
	}
	return path, nil
}

func encodeAudioFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read audio file: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func removeAudioFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to remove audio file", "path", path, "error", err)
	}
}
