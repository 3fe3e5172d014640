package scanning

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/zombor/taxishift/internal/shift"
)

// DefaultGeminiModel is used when no model name is configured
const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini implements the Scanner interface using Google Gemini
type Gemini struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
	now     func() time.Time
}

// NewGemini creates a new Gemini Scanner instance.
// A missing API key yields ErrConfiguration.
func NewGemini(ctx context.Context, apiKey string, modelName string) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: gemini api key is required", ErrConfiguration)
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("%w: creating gemini client: %v", ErrConfiguration, err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)

	return &Gemini{
		client:  client,
		model:   model,
		timeout: 30 * time.Second,
		now:     time.Now,
	}, nil
}

// ScanShift analyzes a shift summary photo and extracts the raw fields
func (g *Gemini) ScanShift(ctx context.Context, imageData []byte, contentType string) (*shift.RawShiftData, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	pngData, err := prepareImage(imageData, contentType)
	if err != nil {
		return nil, err
	}

	// genai.ImageData expects the format suffix ("png"), not the MIME type
	resp, err := g.model.GenerateContent(ctx,
		genai.ImageData("png", pngData),
		genai.Text(shiftScanSystemPrompt+"\n\n"+shiftScanPrompt),
	)
	if err != nil {
		return nil, classifyGeminiError(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: no response from gemini", ErrExtraction)
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	return parseShiftJSON(responseText.String(), g.now())
}

// classifyGeminiError separates rejected credentials from other failures
func classifyGeminiError(err error) error {
	if isCredentialRejection(err) {
		return fmt.Errorf("%w: %v", ErrAuthorization, err)
	}
	return fmt.Errorf("%w: generating content: %v", ErrExtraction, err)
}

func isCredentialRejection(err error) bool {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Reason() == "API_KEY_INVALID" {
			return true
		}
		switch apiErr.HTTPCode() {
		case http.StatusUnauthorized, http.StatusForbidden:
			return true
		}
		if st := apiErr.GRPCStatus(); st != nil && isCredentialCode(st.Code(), st.Message()) {
			return true
		}
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code == http.StatusUnauthorized || gErr.Code == http.StatusForbidden
	}

	if st, ok := status.FromError(err); ok {
		return isCredentialCode(st.Code(), st.Message())
	}
	return false
}

func isCredentialCode(code codes.Code, message string) bool {
	switch code {
	case codes.Unauthenticated, codes.PermissionDenied:
		return true
	case codes.InvalidArgument:
		return strings.Contains(strings.ToLower(message), "api key")
	}
	return false
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
