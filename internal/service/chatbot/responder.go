// Package chatbot turns a free-text question about a dataset into a single
// completion from a hosted language model.
package chatbot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

const promptTemplate = "Given the dataset: '%s', provide relevant information."

var (
	ErrEmptyQuery      = errors.New("query is required")
	ErrEmptyCompletion = errors.New("completion returned no choices")

	// ErrDatasetUnavailable wraps failures to read the dataset named in a query.
	ErrDatasetUnavailable = errors.New("dataset preview unavailable")
)

// Completer produces one completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Options struct {
	Completer Completer
	// Model is reported back to HTTP callers alongside the answer.
	Model string
	// Datasets loads file previews for RespondWithDataset. Optional.
	Datasets *DatasetContext
	Logger   zerolog.Logger
}

// Responder answers one query per call. It keeps no history.
type Responder struct {
	completer Completer
	model     string
	datasets  *DatasetContext
	log       zerolog.Logger
}

func NewResponder(opts Options) *Responder {
	return &Responder{
		completer: opts.Completer,
		model:     opts.Model,
		datasets:  opts.Datasets,
		log:       opts.Logger.With().Str("component", "chatbot").Logger(),
	}
}

func (r *Responder) Model() string {
	return r.model
}

// Respond sends the templated prompt for query and returns the trimmed answer.
func (r *Responder) Respond(ctx context.Context, query string) (string, error) {
	return r.RespondWithDataset(ctx, query, "")
}

// RespondWithDataset is Respond with a preview of the file at datasetPath placed
// ahead of the prompt. An empty path behaves like Respond.
func (r *Responder) RespondWithDataset(ctx context.Context, query, datasetPath string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", ErrEmptyQuery
	}
	if r.completer == nil {
		return "", errors.New("chatbot not configured")
	}

	var preview string
	if datasetPath != "" && r.datasets != nil {
		p, err := r.datasets.Preview(ctx, datasetPath)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrDatasetUnavailable, err)
		}
		preview = p
	}

	text, err := r.completer.Complete(ctx, BuildPrompt(query, preview))
	if err != nil {
		r.log.Error().Err(err).Str("model", r.model).Msg("Completion request failed")
		return "", fmt.Errorf("complete: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// BuildPrompt renders the fixed prompt template. A non-empty preview is placed
// on the lines before it.
func BuildPrompt(query, preview string) string {
	line := fmt.Sprintf(promptTemplate, query)
	if preview == "" {
		return line
	}
	var b strings.Builder
	b.WriteString("Dataset preview:\n")
	b.WriteString(preview)
	if !strings.HasSuffix(preview, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(line)
	return b.String()
}
