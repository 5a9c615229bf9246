// Package speech provides streaming speech-to-text and text-to-speech
// sessions over the backend's WebSocket endpoints.
package speech

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// TranscriptDelta is one incremental recognition result.
type TranscriptDelta struct {
	Text    string  `json:"text"`
	IsFinal bool    `json:"is_final"`
	Elapsed float64 `json:"duration,omitempty"`
}

// Recognizer is a live speech-to-text session. Audio is sent incrementally
// and transcript deltas arrive on Transcripts until the session is closed.
type Recognizer interface {
	SendAudio(data []byte) error
	Finalize() error
	Transcripts() <-chan TranscriptDelta
	Close() error
}

// Synthesizer is a live text-to-speech session. Text is sent incrementally
// and audio chunks arrive on Audio until the session is closed.
type Synthesizer interface {
	Speak(text string) error
	Audio() <-chan []byte
	Close() error
}

// Client dials speech sessions against a single backend.
type Client struct {
	baseURL string
	token   func() string
	dialer  websocket.Dialer
}

// NewClient creates a speech client for the given backend base URL. token is
// called at dial time so a refreshed access token is always used; it may be
// nil for unauthenticated backends.
func NewClient(baseURL string, token func() string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		dialer: websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// wsEndpoint rewrites the backend base URL to its WebSocket equivalent and
// appends the path and query.
func (c *Client) wsEndpoint(path string, q url.Values) (string, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %s: %w", path, err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if q != nil {
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
