// Package pipeline contains the query and voice orchestration pipelines.
//
// Each request runs as one sequential chain: every adapter call is awaited
// to completion before the next stage begins. The accumulated message patch
// is applied exactly once per run, via defer, so the stored record reflects
// real partial progress on every exit path.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/saarthi-ai/saarthi/internal/answer"
	"github.com/saarthi-ai/saarthi/internal/config"
	"github.com/saarthi-ai/saarthi/internal/domain"
	"github.com/saarthi-ai/saarthi/internal/identity"
	"github.com/saarthi-ai/saarthi/internal/session"
	"github.com/saarthi-ai/saarthi/internal/splitter"
	"github.com/saarthi-ai/saarthi/internal/store"
	"github.com/saarthi-ai/saarthi/internal/translate"
)

// followUpBoilerplate introduces the follow-up list in the translated
// display response.
const followUpBoilerplate = "\n\nHere are the follow-up questions you can ask:\n"

// QueryResult is the bundle a successful query pipeline run returns.
type QueryResult struct {
	MessageID         string
	GeneratedAnswer   string
	Response          string
	FollowUpQuestions []splitter.FollowUp
}

// Query orchestrates a text query end to end: user resolution, history,
// inbound translation, answer generation, response splitting with
// back-translation, and finalization.
type Query struct {
	sessions   *session.Manager
	repo       store.Repository
	translator translate.Translator
	generator  answer.Generator
}

// NewQuery creates a query pipeline.
func NewQuery(sessions *session.Manager, repo store.Repository, translator translate.Translator, generator answer.Generator) *Query {
	return &Query{
		sessions:   sessions,
		repo:       repo,
		translator: translator,
		generator:  generator,
	}
}

// Run executes the pipeline for one query. The message patch accumulated by
// the stages is persisted exactly once, whether or not the run succeeds.
func (q *Query) Run(ctx context.Context, profile *identity.Profile, queryText, inputType string) (result *QueryResult, err error) {
	patch := &store.MessagePatch{}
	var messageID string
	defer func() {
		if messageID == "" {
			return
		}
		if ferr := q.sessions.ApplyPatch(ctx, messageID, patch); ferr != nil {
			slog.Error("finalize message patch failed", "message_id", messageID, "error", ferr)
			if err == nil {
				err = ferr
			}
		}
	}()

	user, err := q.sessions.ResolveUser(ctx, profile)
	if err != nil {
		return nil, err
	}

	conv, err := q.sessions.LatestConversation(ctx, user.ID, queryText)
	if err != nil {
		return nil, err
	}

	messageID, err = q.sessions.RecordIncomingMessage(ctx, conv.ID, queryText)
	if err != nil {
		return nil, err
	}
	patch.InputType = strPtr(inputType)
	patch.MessageInputTime = timeNow()

	history, err := q.sessions.ChatHistory(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	patch.InputTranslationStart = timeNow()
	pivotText, detected, err := q.translator.DetectAndTranslate(ctx, queryText)
	if err != nil {
		return nil, err
	}
	patch.InputTranslationEnd = timeNow()
	patch.TranslatedMessage = strPtr(pivotText)
	patch.InputLanguageDetected = strPtr(detected)

	generated, err := q.generator.Execute(ctx, answer.Request{
		Query:       pivotText,
		Language:    detected,
		Email:       user.Email,
		UserName:    user.DisplayName(),
		MessageID:   messageID,
		ChatHistory: history,
	})
	if err != nil {
		return nil, err
	}

	post, err := q.postprocess(ctx, generated.Answer, detected, messageID)
	if err != nil {
		return nil, err
	}
	patch.MessageResponse = strPtr(post.finalResponse)
	patch.MessageTranslatedResponse = strPtr(post.translatedResponse)
	patch.MessageResponseTime = timeNow()

	return &QueryResult{
		MessageID:         messageID,
		GeneratedAnswer:   post.finalResponse,
		Response:          post.translatedResponse,
		FollowUpQuestions: post.followUps,
	}, nil
}

type postprocessed struct {
	finalResponse      string
	translatedResponse string
	followUps          []splitter.FollowUp
}

// postprocess splits the generated answer from its follow-up block,
// back-translates both to the detected input language, and persists the
// follow-up rows when more than one was extracted. Any translation failure
// fails the whole step; there is no fallback to untranslated text.
func (q *Query) postprocess(ctx context.Context, generated, detectedLanguage, messageID string) (*postprocessed, error) {
	target := domain.ShortCode(detectedLanguage)

	split := splitter.Split(generated)
	if !split.Found {
		translated, err := q.translateTo(ctx, split.Answer, target)
		if err != nil {
			return nil, err
		}
		return &postprocessed{
			finalResponse:      split.Answer,
			translatedResponse: translated,
		}, nil
	}

	translatedMain, err := q.translateTo(ctx, split.Answer, target)
	if err != nil {
		return nil, err
	}
	translatedBoilerplate, err := q.translateTo(ctx, followUpBoilerplate, target)
	if err != nil {
		return nil, err
	}

	followUps := splitter.ExtractFollowUps(split.Block)

	finalResponse := split.Answer
	var translatedLines []string
	for i := range followUps {
		finalResponse += "\n" + followUps[i].Question

		translatedQuestion, err := q.translateTo(ctx, followUps[i].Question, target)
		if err != nil {
			return nil, err
		}
		followUps[i].Question = translatedQuestion
		translatedLines = append(translatedLines, translatedQuestion)
	}
	translatedResponse := translatedMain + translatedBoilerplate + strings.Join(translatedLines, "\n")

	// A single extracted follow-up is too weak a signal to persist;
	// only batches of two or three are stored.
	if len(followUps) > 1 {
		rows := make([]*domain.FollowUpQuestion, 0, len(followUps))
		now := time.Now()
		for i, fu := range followUps {
			rows = append(rows, &domain.FollowUpQuestion{
				ID:        fu.ID,
				MessageID: messageID,
				Question:  fu.Question,
				Sequence:  i + 1,
				Type:      domain.FollowUpQuestionTypeMessage,
				CreatedOn: now,
			})
		}
		if err := q.repo.InsertFollowUpQuestions(ctx, rows); err != nil {
			return nil, err
		}
	}

	return &postprocessed{
		finalResponse:      finalResponse,
		translatedResponse: translatedResponse,
		followUps:          followUps,
	}, nil
}

// translateTo translates text unless the target already is the pivot
// language, in which case the text passes through untouched and the
// adapter is never invoked.
func (q *Query) translateTo(ctx context.Context, text, target string) (string, error) {
	if target == config.PivotLanguageCode {
		return text, nil
	}
	out, err := q.translator.Translate(ctx, text, target)
	if err != nil {
		return "", fmt.Errorf("translate response: %w", err)
	}
	return out, nil
}

func strPtr(s string) *string {
	return &s
}

func timeNow() *time.Time {
	now := time.Now()
	return &now
}
