package reports

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"civicsync-web/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestClassifyServiceError(t *testing.T) {
	tests := []struct {
		err  error
		want ServiceCause
	}{
		{&ServiceFailure{Cause: CausePolicy, Err: errors.New("x")}, CausePolicy},
		{fmt.Errorf("wrapped: %w", &ServiceFailure{Cause: CauseEmptyResponse, Err: errors.New("x")}), CauseEmptyResponse},
		{genai.APIError{Code: 429, Message: "quota"}, CauseRateLimited},
		{genai.APIError{Code: 400, Message: "API key not valid. Please pass a valid API key."}, CauseConfiguration},
		{genai.APIError{Code: 503, Message: "overloaded"}, CauseServer},
		{context.DeadlineExceeded, CauseNetwork},
		{errors.New("dial tcp: lookup example: no such host"), CauseNetwork},
		{errors.New("got 500 Internal Server Error"), CauseServer},
		{errors.New("RESOURCE_EXHAUSTED"), CauseRateLimited},
		{errors.New("something odd"), CauseUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyServiceError(tt.err), tt.err.Error())
	}
}

func TestServiceErrorCarriesMessageKey(t *testing.T) {
	raw := errors.New("raw diagnostics")
	err := ServiceError(CauseRateLimited, raw)
	assert.Equal(t, models.KindService, err.Kind)
	assert.Equal(t, "report.error.service.rateLimited", err.Key)
	assert.ErrorIs(t, err, raw)
	assert.Equal(t, "report.error.service.unknown", ServiceMessageKey("bogus"))
}

func TestExtractImage(t *testing.T) {
	_, err := extractImage(&genai.GenerateContentResponse{})
	assert.Equal(t, CauseEmptyResponse, ClassifyServiceError(err))

	_, err = extractImage(&genai.GenerateContentResponse{
		PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
	})
	assert.Equal(t, CausePolicy, ClassifyServiceError(err))

	_, err = extractImage(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
	})
	assert.Equal(t, CausePolicy, ClassifyServiceError(err))

	_, err = extractImage(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText("no picture", genai.RoleModel)}},
	})
	assert.Equal(t, CauseMalformedResponse, ClassifyServiceError(err))

	ann, err := extractImage(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{
			genai.NewPartFromText("here you go"),
			genai.NewPartFromBytes([]byte("img"), "image/jpeg"),
		}}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "aW1n", ann.Base64)
	assert.Equal(t, "image/jpeg", ann.MIMEType)
}

func TestUnconfiguredAnnotator(t *testing.T) {
	_, err := UnconfiguredAnnotator{}.Annotate(context.Background(), "", "image/png", "p")
	assert.Equal(t, CauseConfiguration, ClassifyServiceError(err))
}
