package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// SynthesizeOptions configure a streaming synthesis session. Rate, Pitch and
// Volume are multipliers where 1.0 is the backend default; zero means unset.
type SynthesizeOptions struct {
	Voice      string
	Rate       float64
	Pitch      float64
	Volume     float64
	SampleRate int
}

// StreamingSynthesizer is a live text-to-speech session over a WebSocket.
// Audio arrives as 16-bit signed little-endian PCM chunks.
type StreamingSynthesizer struct {
	conn    *websocket.Conn
	audio   chan []byte
	done    chan struct{}
	closed  atomic.Bool
	writeMu sync.Mutex
	cancel  context.CancelFunc
	ctx     context.Context
}

// NewSynthesizer opens a streaming synthesis session.
func (c *Client) NewSynthesizer(ctx context.Context, opts SynthesizeOptions) (*StreamingSynthesizer, error) {
	if opts.SampleRate == 0 {
		opts.SampleRate = 24000
	}

	q := url.Values{}
	q.Set("encoding", "pcm_s16le")
	q.Set("sample_rate", strconv.Itoa(opts.SampleRate))
	if opts.Voice != "" {
		q.Set("voice", opts.Voice)
	}
	if opts.Rate != 0 {
		q.Set("rate", strconv.FormatFloat(opts.Rate, 'f', -1, 64))
	}
	if opts.Pitch != 0 {
		q.Set("pitch", strconv.FormatFloat(opts.Pitch, 'f', -1, 64))
	}
	if opts.Volume != 0 {
		q.Set("volume", strconv.FormatFloat(opts.Volume, 'f', -1, 64))
	}

	endpoint, err := c.wsEndpoint("/speech/synthesize", q)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	if c.token != nil {
		if tok := c.token(); tok != "" {
			headers.Set("Authorization", "Bearer "+tok)
		}
	}

	conn, resp, err := c.dialer.DialContext(ctx, endpoint, headers)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			if len(body) > 0 {
				return nil, fmt.Errorf("synthesizer connect (status %d): %s", resp.StatusCode, string(body))
			}
			return nil, fmt.Errorf("synthesizer connect: status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("synthesizer connect: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &StreamingSynthesizer{
		conn:   conn,
		audio:  make(chan []byte, 100),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
	go s.readLoop()
	return s, nil
}

type synthesizerCommand struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type synthesizerMessage struct {
	Type  string `json:"type"` // "flush_done", "done", "error"
	Error string `json:"error"`
}

func (s *StreamingSynthesizer) readLoop() {
	defer func() {
		close(s.audio)
		close(s.done)
	}()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		if msgType == websocket.BinaryMessage {
			chunk := make([]byte, len(data))
			copy(chunk, data)
			select {
			case s.audio <- chunk:
			case <-s.ctx.Done():
				return
			}
			continue
		}

		var msg synthesizerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "flush_done":
			continue
		case "done", "error":
			return
		}
	}
}

// Speak queues text for synthesis. Audio for successive calls arrives in
// order on Audio.
func (s *StreamingSynthesizer) Speak(text string) error {
	if s.closed.Load() {
		return fmt.Errorf("synthesizer closed")
	}
	cmd, err := json.Marshal(synthesizerCommand{Type: "speak", Text: text})
	if err != nil {
		return fmt.Errorf("encode speak command: %w", err)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, cmd)
}

// Audio returns the channel of synthesized PCM chunks. It is closed when the
// session ends.
func (s *StreamingSynthesizer) Audio() <-chan []byte {
	return s.audio
}

// Done returns a channel closed when the session ends.
func (s *StreamingSynthesizer) Done() <-chan struct{} {
	return s.done
}

// Close tears the session down, discarding any queued synthesis. Safe to
// call more than once.
func (s *StreamingSynthesizer) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.cancel()

	cmd, _ := json.Marshal(synthesizerCommand{Type: "done"})
	s.writeMu.Lock()
	s.conn.WriteMessage(websocket.TextMessage, cmd)
	s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.writeMu.Unlock()

	return s.conn.Close()
}
