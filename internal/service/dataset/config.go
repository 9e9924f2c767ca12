package dataset

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"datagovchat/internal/config"
)

// FromConfig builds a Fetcher from the dataset and basic_config sections.
// A zero timeout leaves requests unbounded apart from the caller's context.
func FromConfig(cfg *config.Config, log zerolog.Logger) *Fetcher {
	client := &http.Client{}
	if cfg.Dataset.TimeoutSeconds > 0 {
		client.Timeout = time.Duration(cfg.Dataset.TimeoutSeconds) * time.Second
	}
	return NewFetcher(Options{
		BaseURL:             cfg.Dataset.BaseURL,
		HTTPClient:          client,
		DefaultCredential:   cfg.Dataset.APIKey,
		DefaultOutputFolder: cfg.BasicConfig.OutputFolder,
		TrustBody:           cfg.Dataset.TrustBody(),
		Logger:              log,
	})
}
