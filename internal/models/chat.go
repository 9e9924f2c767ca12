package models

// ChatQuery is the free text a caller asks, optionally about a downloaded dataset.
type ChatQuery struct {
	Text       string `json:"query"`
	ResourceID string `json:"resource_id,omitempty"`
}

type ChatResponse struct {
	Text  string `json:"response"`
	Model string `json:"model"`
}
