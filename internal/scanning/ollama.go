package scanning

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zombor/taxishift/internal/shift"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "llava"
)

// Ollama implements the Scanner interface using a local Ollama server.
// Vision models that read printed figures well: llava:1.6, qwen2-vl:7b, llama3.2-vision.
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
	now     func() time.Time
}

// NewOllama creates a new Ollama Scanner instance
func NewOllama(baseURL string, modelName string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if modelName == "" {
		modelName = DefaultOllamaModel
	}

	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   modelName,
		client: &http.Client{
			Timeout: 120 * time.Second, // vision models are slow on CPU
		},
		now: time.Now,
	}, nil
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// ScanShift analyzes a shift summary photo and extracts the raw fields
func (o *Ollama) ScanShift(ctx context.Context, imageData []byte, contentType string) (*shift.RawShiftData, error) {
	pngData, err := prepareImage(imageData, contentType)
	if err != nil {
		return nil, err
	}

	reqBody := ollamaChatRequest{
		Model:  o.model,
		Stream: false,
		Format: "json",
		Options: map[string]any{
			"temperature": 0,
		},
		Messages: []ollamaMessage{
			{
				Role:    "system",
				Content: shiftScanSystemPrompt,
			},
			{
				Role:    "user",
				Content: shiftScanPrompt,
				Images:  []string{base64.StdEncoding.EncodeToString(pngData)},
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrConfiguration, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: calling ollama API: %v", ErrExtraction, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: ollama API returned status %d", ErrAuthorization, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: ollama API error (status %d): %s", ErrExtraction, resp.StatusCode, string(body))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrExtraction, err)
	}

	return parseShiftJSON(chatResp.Message.Content, o.now())
}

// Close closes the Ollama client (no-op for HTTP client)
func (o *Ollama) Close() error {
	return nil
}
