package chatbot

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"

	"datagovchat/internal/config"
)

type fakeChatModel struct {
	input []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.input = input
	return &schema.Message{Role: schema.Assistant, Content: " answer "}, nil
}

func (f *fakeChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, nil
}

func TestChatModelCompleterSendsSingleUserMessage(t *testing.T) {
	fake := &fakeChatModel{}
	c := NewChatModelCompleter(fake)
	got, err := c.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, " answer ", got)
	require.Len(t, fake.input, 1)
	require.Equal(t, schema.User, fake.input[0].Role)
	require.Equal(t, "prompt", fake.input[0].Content)
}

func TestNewCompleterSelectsProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Providers = map[string]config.ProviderConfig{
		"openai": {APIKey: "sk-test", BaseURL: "http://127.0.0.1:1/"},
	}
	c, err := NewCompleter(context.Background(), cfg)
	require.NoError(t, err)
	require.IsType(t, &OpenAICompleter{}, c)

	cfg.Chatbot.Provider = "unknown"
	cfg.Providers["unknown"] = config.ProviderConfig{APIKey: "k"}
	_, err = NewCompleter(context.Background(), cfg)
	require.Error(t, err)
}

func TestNewCompleterRequiresAPIKey(t *testing.T) {
	cfg := config.Default()
	_, err := NewCompleter(context.Background(), cfg)
	require.Error(t, err)
}
