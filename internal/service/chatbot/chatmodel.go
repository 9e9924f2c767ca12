package chatbot

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"datagovchat/internal/config"
)

// ChatModelCompleter sends the prompt as a single user message to a chat model.
type ChatModelCompleter struct {
	model model.BaseChatModel
}

func NewChatModelCompleter(m model.BaseChatModel) *ChatModelCompleter {
	return &ChatModelCompleter{model: m}
}

func (c *ChatModelCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	msg, err := c.model.Generate(ctx, []*schema.Message{
		{Role: schema.User, Content: prompt},
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if msg == nil {
		return "", ErrEmptyCompletion
	}
	return msg.Content, nil
}

// NewCompleter builds the completer selected by cfg.Chatbot.Provider:
// "openai" uses the text completion API, while "openai-chat", "claude" and
// "gemini" go through chat models.
func NewCompleter(ctx context.Context, cfg *config.Config) (Completer, error) {
	provider := cfg.Chatbot.Provider
	provCfg := cfg.Provider(provider)
	modelName := cfg.Chatbot.Model
	if modelName == "" {
		modelName = provCfg.Model
	}
	maxTokens := cfg.Chatbot.MaxTokens

	if provider == "openai" {
		if provCfg.APIKey == "" {
			return nil, fmt.Errorf("provider %s has no api key", provider)
		}
		return NewOpenAICompleter(provCfg.APIKey, provCfg.BaseURL, modelName, maxTokens), nil
	}

	chatModel, err := newChatModel(ctx, provider, provCfg, modelName, maxTokens)
	if err != nil {
		return nil, err
	}
	return NewChatModelCompleter(chatModel), nil
}

func newChatModel(ctx context.Context, provider string, provCfg config.ProviderConfig, modelName string, maxTokens int) (model.BaseChatModel, error) {
	if provCfg.APIKey == "" {
		return nil, fmt.Errorf("provider %s has no api key", provider)
	}
	var (
		chatModel model.BaseChatModel
		err       error
	)
	switch provider {
	case "openai-chat":
		chatModel, err = einoopenai.NewChatModel(ctx, &einoopenai.ChatModelConfig{
			BaseURL:   provCfg.BaseURL,
			Model:     modelName,
			APIKey:    provCfg.APIKey,
			MaxTokens: &maxTokens,
		})
	case "gemini":
		client, cerr := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: provCfg.APIKey,
		})
		if cerr != nil {
			return nil, fmt.Errorf("create gemini client: %w", cerr)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client:    client,
			Model:     modelName,
			MaxTokens: &maxTokens,
		})
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     modelName,
			BaseURL:   baseURLPtr,
			MaxTokens: maxTokens,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", provider, err)
	}
	return chatModel, nil
}

// FromConfig builds a Responder with dataset previews enabled.
func FromConfig(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Responder, error) {
	completer, err := NewCompleter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	datasets, err := NewDatasetContext(ctx, DefaultPreviewBytes)
	if err != nil {
		return nil, err
	}
	return NewResponder(Options{
		Completer: completer,
		Model:     cfg.Chatbot.Model,
		Datasets:  datasets,
		Logger:    logger,
	}), nil
}
