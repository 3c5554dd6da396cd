package reports

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const DefaultImageModel = "gemini-2.5-flash-image"

// Annotation is the edited image returned by an Annotator.
type Annotation struct {
	Base64   string
	MIMEType string
}

// Annotator draws the user's prompt onto an image.
type Annotator interface {
	Annotate(ctx context.Context, base64Data, mimeType, prompt string) (Annotation, error)
}

// GenAIAnnotator calls the Gemini image model.
type GenAIAnnotator struct {
	client *genai.Client
	model  string
}

func NewGenAIAnnotator(ctx context.Context, apiKey, model string) (*GenAIAnnotator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = DefaultImageModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIAnnotator{client: client, model: model}, nil
}

func (a *GenAIAnnotator) Annotate(ctx context.Context, base64Data, mimeType, prompt string) (Annotation, error) {
	raw, err := base64.StdEncoding.DecodeString(base64Data)
	if err != nil {
		return Annotation{}, &ServiceFailure{Cause: CauseFileRead, Err: fmt.Errorf("failed to read base64 data: %w", err)}
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(raw, mimeType),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
	})
	if err != nil {
		return Annotation{}, fmt.Errorf("GenAI generate failed: %w", err)
	}
	return extractImage(resp)
}

func extractImage(resp *genai.GenerateContentResponse) (Annotation, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return Annotation{}, &ServiceFailure{
				Cause: CausePolicy,
				Err:   fmt.Errorf("request was refused due to safety policies: %s", resp.PromptFeedback.BlockReason),
			}
		}
		return Annotation{}, &ServiceFailure{Cause: CauseEmptyResponse, Err: errors.New("the API response was empty")}
	}

	candidate := resp.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mimeType := part.InlineData.MIMEType
				if mimeType == "" {
					mimeType = "image/png"
				}
				return Annotation{
					Base64:   base64.StdEncoding.EncodeToString(part.InlineData.Data),
					MIMEType: mimeType,
				}, nil
			}
		}
	}

	reason := strings.ToUpper(string(candidate.FinishReason))
	if strings.Contains(reason, "SAFETY") || strings.Contains(reason, "PROHIBITED") || strings.Contains(reason, "BLOCKLIST") {
		return Annotation{}, &ServiceFailure{
			Cause: CausePolicy,
			Err:   fmt.Errorf("request was refused due to safety policies: %s", reason),
		}
	}
	return Annotation{}, &ServiceFailure{Cause: CauseMalformedResponse, Err: errors.New("no image data was found in the API response")}
}

// UnconfiguredAnnotator fails every call. It stands in when no API key is set.
type UnconfiguredAnnotator struct{}

func (UnconfiguredAnnotator) Annotate(context.Context, string, string, string) (Annotation, error) {
	return Annotation{}, &ServiceFailure{Cause: CauseConfiguration, Err: errors.New("API key is missing")}
}
