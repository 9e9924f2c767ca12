package chatbot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenAICompleterSendsLegacyCompletion(t *testing.T) {
	var body map[string]any
	var auth, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","object":"text_completion","created":1,"model":"gpt-3.5-turbo-instruct",` +
			`"choices":[{"text":"\n\nSales rose. ","index":0,"finish_reason":"stop","logprobs":null}]}`))
	}))
	defer srv.Close()

	c := NewOpenAICompleter("sk-test", srv.URL+"/", "gpt-3.5-turbo-instruct", 150)
	text, err := c.Complete(context.Background(), "Given the dataset: 'sales trends', provide relevant information.")
	require.NoError(t, err)
	require.Equal(t, "\n\nSales rose. ", text)

	require.True(t, strings.HasSuffix(path, "/completions"))
	require.Equal(t, "Bearer sk-test", auth)
	require.Equal(t, "gpt-3.5-turbo-instruct", body["model"])
	require.Equal(t, "Given the dataset: 'sales trends', provide relevant information.", body["prompt"])
	require.EqualValues(t, 150, body["max_tokens"])
}

func TestOpenAICompleterNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","object":"text_completion","created":1,"model":"m","choices":[]}`))
	}))
	defer srv.Close()

	c := NewOpenAICompleter("sk-test", srv.URL+"/", "m", 10)
	_, err := c.Complete(context.Background(), "p")
	require.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestOpenAICompleterHTTPError(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	c := NewOpenAICompleter("sk-test", srv.URL+"/", "m", 10)
	_, err := c.Complete(context.Background(), "p")
	require.Error(t, err)
	require.Equal(t, 1, hits, "requests must not be retried")
}
