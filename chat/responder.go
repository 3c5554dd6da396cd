package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"civicsync-web/models"
	"civicsync-web/reports"

	"google.golang.org/genai"
)

const DefaultChatModel = "gemini-2.5-flash"

const mayorInstruction = "You are the Mayor of New York City. Engage directly with constituents in this chat room. " +
	"Speak in a confident, decisive, and official tone. Address their concerns, provide updates on your agenda, " +
	"and gather feedback on community issues. Your goal is to foster a sense of direct access and accountability."

// Responder answers messages of one conversation.
type Responder interface {
	Reply(ctx context.Context, message string) (string, error)
}

// Opener starts a conversation for a browser.
type Opener interface {
	Open(ctx context.Context) (Responder, error)
}

// ReplyMessageKey maps a failure cause to the chat's user-safe message.
func ReplyMessageKey(cause reports.ServiceCause) string {
	switch cause {
	case reports.CauseConfiguration, reports.CauseNetwork, reports.CauseRateLimited,
		reports.CauseServer, reports.CausePolicy:
		return "chat.error.reply." + string(cause)
	}
	return "chat.error.reply.unexpected"
}

// ReplyError wraps a responder failure as a service error.
func ReplyError(raw error) *models.Error {
	cause := reports.ClassifyServiceError(raw)
	return &models.Error{Kind: models.KindService, Key: ReplyMessageKey(cause), Cause: raw}
}

// Mayor opens Gemini chat sessions speaking as the mayor.
type Mayor struct {
	client *genai.Client
	model  string
}

func NewMayor(ctx context.Context, apiKey, model string) (*Mayor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = DefaultChatModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Mayor{client: client, model: model}, nil
}

func (m *Mayor) Open(ctx context.Context) (Responder, error) {
	session, err := m.client.Chats.Create(ctx, m.model, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(mayorInstruction, genai.RoleUser),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open chat session: %w", err)
	}
	return &genaiConversation{session: session}, nil
}

// genaiConversation serializes turns; a genai chat keeps its own history.
type genaiConversation struct {
	mu      sync.Mutex
	session *genai.Chat
}

func (c *genaiConversation) Reply(ctx context.Context, message string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var reply strings.Builder
	var blocked genai.BlockedReason
	for chunk, err := range c.session.SendMessageStream(ctx, *genai.NewPartFromText(message)) {
		if err != nil {
			return "", err
		}
		if chunk.PromptFeedback != nil && chunk.PromptFeedback.BlockReason != "" {
			blocked = chunk.PromptFeedback.BlockReason
		}
		reply.WriteString(chunk.Text())
	}

	text := strings.TrimSpace(reply.String())
	switch {
	case text != "":
		return text, nil
	case blocked != "":
		return "", &reports.ServiceFailure{Cause: reports.CausePolicy, Err: fmt.Errorf("message blocked: %s", blocked)}
	}
	return "", &reports.ServiceFailure{Cause: reports.CauseEmptyResponse, Err: errors.New("chat reply was empty")}
}
