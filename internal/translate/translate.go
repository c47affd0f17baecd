// Package translate provides the translation adapter.
//
// All translation passes through the pivot language (English). Callers are
// responsible for skipping Translate entirely when the target already is
// the pivot; the adapter never second-guesses a requested round-trip.
package translate

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	translatev2 "google.golang.org/api/translate/v2"
)

// Translator detects languages and translates text.
type Translator interface {
	// DetectAndTranslate translates text to the pivot language and returns
	// the translated text plus the detected source language code.
	DetectAndTranslate(ctx context.Context, text string) (string, string, error)

	// Translate translates text to the target language code.
	Translate(ctx context.Context, text, target string) (string, error)
}

// GoogleTranslator implements Translator using the Google Translate v2 API.
type GoogleTranslator struct {
	svc   *translatev2.Service
	pivot string
}

// NewGoogle creates a Google-backed translator.
func NewGoogle(ctx context.Context, apiKey, pivot string) (*GoogleTranslator, error) {
	svc, err := translatev2.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create translate service: %w", err)
	}
	return &GoogleTranslator{svc: svc, pivot: pivot}, nil
}

// DetectAndTranslate translates text to the pivot language.
func (g *GoogleTranslator) DetectAndTranslate(ctx context.Context, text string) (string, string, error) {
	resp, err := g.svc.Translations.List([]string{text}, g.pivot).
		Format("text").
		Context(ctx).
		Do()
	if err != nil {
		return "", "", fmt.Errorf("detect and translate: %w", err)
	}
	if len(resp.Translations) == 0 {
		return "", "", fmt.Errorf("detect and translate: empty response")
	}

	tr := resp.Translations[0]
	detected := tr.DetectedSourceLanguage
	if detected == "" {
		detected = g.pivot
	}
	return tr.TranslatedText, detected, nil
}

// Translate translates text to the target language code.
func (g *GoogleTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	resp, err := g.svc.Translations.List([]string{text}, target).
		Format("text").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("translate to %s: %w", target, err)
	}
	if len(resp.Translations) == 0 {
		return "", fmt.Errorf("translate to %s: empty response", target)
	}
	return resp.Translations[0].TranslatedText, nil
}
