package lyra

import (
	"context"
	"net/http"
)

// ChatService sends conversation turns to the assistant.
type ChatService struct {
	client *Client
}

// Turn is one message in the conversation history. The history is an
// append-only ordered sequence owned by the caller.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Source is a knowledge source cited by the assistant. Content carries the
// backend's category string, empty when the backend omits it.
type Source struct {
	Title   string
	Content string
}

// ChatResponse is the assistant's reply with any cited sources.
type ChatResponse struct {
	Response string
	Sources  []Source
}

type chatRequest struct {
	Message             string `json:"message"`
	ConversationHistory []Turn `json:"conversation_history"`
	IncludeSources      bool   `json:"include_sources"`
}

type chatWireResponse struct {
	Response string `json:"response"`
	Sources  []struct {
		Title    string `json:"title"`
		Category string `json:"category,omitempty"`
	} `json:"sources,omitempty"`
}

// SendMessage posts a user message with its conversation history and returns
// the assistant's reply. The call goes through the auth manager, so an
// expired access token is refreshed transparently.
func (s *ChatService) SendMessage(ctx context.Context, message string, history []Turn) (*ChatResponse, error) {
	if history == nil {
		history = []Turn{}
	}

	req := &Request{
		Method: http.MethodPost,
		Path:   "/chat",
		Body: chatRequest{
			Message:             message,
			ConversationHistory: history,
			IncludeSources:      true,
		},
	}

	var wire chatWireResponse
	if err := s.client.Auth.DoJSON(ctx, req, &wire); err != nil {
		return nil, err
	}

	out := &ChatResponse{Response: wire.Response}
	for _, src := range wire.Sources {
		out.Sources = append(out.Sources, Source{Title: src.Title, Content: src.Category})
	}
	return out, nil
}
