package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// geminiSystemPrompt frames the assistant for free-form questions. Booking
// itself never goes through the model; the dialogue state machine owns it.
const geminiSystemPrompt = `You are the friendly front-desk assistant for PawBook, a veterinary clinic.
Answer questions about the clinic briefly and warmly.
Appointments are booked through this chat: when a visitor wants one, tell them to say "book an appointment" and the booking flow will take over.
Never give medical advice; suggest bringing the pet in instead.`

// maxGeminiHistory bounds how much transcript rides along with each call.
const maxGeminiHistory = 20

// GeminiResponder answers non-booking turns with Google's Gemini API.
type GeminiResponder struct {
	client  *genai.Client
	modelID string
}

var _ Responder = (*GeminiResponder)(nil)

// NewGeminiResponder creates a Gemini-backed responder.
func NewGeminiResponder(ctx context.Context, apiKey, modelID string) (*GeminiResponder, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("conversation: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("conversation: failed to create gemini client: %w", err)
	}
	return &GeminiResponder{client: client, modelID: modelID}, nil
}

// Respond sends the transcript tail plus the new message to Gemini.
func (g *GeminiResponder) Respond(ctx context.Context, sess *Session, text string) (string, error) {
	model := g.client.GenerativeModel(g.modelID)
	model.SystemInstruction = genai.NewUserContent(genai.Text(geminiSystemPrompt))

	cs := model.StartChat()
	history := sess.Messages
	if len(history) > maxGeminiHistory {
		history = history[len(history)-maxGeminiHistory:]
	}
	for _, msg := range history {
		content := strings.TrimSpace(msg.Content)
		if content == "" || msg.Role == RoleSystem {
			continue
		}
		role := "user"
		if msg.Role == RoleBot {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(content)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(text))
	if err != nil {
		return "", fmt.Errorf("conversation: gemini completion failed: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", errors.New("conversation: gemini returned no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("conversation: gemini returned empty content")
	}

	var out strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			out.WriteString(string(t))
		}
	}
	return strings.TrimSpace(out.String()), nil
}

// Close releases the underlying client.
func (g *GeminiResponder) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
