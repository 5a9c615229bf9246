package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// RecognizeOptions configure a streaming recognition session.
type RecognizeOptions struct {
	// Language is a BCP 47 tag, default "en".
	Language string
	// SampleRate of the incoming PCM in Hz, default 16000.
	SampleRate int
}

// StreamingRecognizer is a live transcription session over a WebSocket.
// Audio is 16-bit signed little-endian PCM.
type StreamingRecognizer struct {
	conn        *websocket.Conn
	transcripts chan TranscriptDelta
	done        chan struct{}
	closed      atomic.Bool
	writeMu     sync.Mutex
	cancel      context.CancelFunc
	ctx         context.Context
}

// NewRecognizer opens a streaming recognition session.
func (c *Client) NewRecognizer(ctx context.Context, opts RecognizeOptions) (*StreamingRecognizer, error) {
	if opts.Language == "" {
		opts.Language = "en"
	}
	if opts.SampleRate == 0 {
		opts.SampleRate = 16000
	}

	q := url.Values{}
	q.Set("language", opts.Language)
	q.Set("encoding", "pcm_s16le")
	q.Set("sample_rate", fmt.Sprintf("%d", opts.SampleRate))

	endpoint, err := c.wsEndpoint("/speech/recognize", q)
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
				return nil, fmt.Errorf("recognizer connect (status %d): %s", resp.StatusCode, string(body))
			}
			return nil, fmt.Errorf("recognizer connect: status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("recognizer connect: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	r := &StreamingRecognizer{
		conn:        conn,
		transcripts: make(chan TranscriptDelta, 100),
		done:        make(chan struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
	go r.readLoop()
	return r, nil
}

type recognizerMessage struct {
	Type    string  `json:"type"` // "transcript", "flush_done", "done", "error"
	Text    string  `json:"text"`
	IsFinal bool    `json:"is_final"`
	Elapsed float64 `json:"duration"`
	Error   string  `json:"error"`
}

func (r *StreamingRecognizer) readLoop() {
	defer func() {
		close(r.transcripts)
		close(r.done)
	}()

	for {
		select {
		case <-r.ctx.Done():
			return
		default:
		}

		_, data, err := r.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg recognizerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "transcript":
			delta := TranscriptDelta{Text: msg.Text, IsFinal: msg.IsFinal, Elapsed: msg.Elapsed}
			select {
			case r.transcripts <- delta:
			case <-r.ctx.Done():
				return
			}
		case "flush_done":
			continue
		case "done", "error":
			return
		}
	}
}

// SendAudio sends a PCM chunk to the recognizer.
func (r *StreamingRecognizer) SendAudio(data []byte) error {
	if r.closed.Load() {
		return fmt.Errorf("recognizer closed")
	}
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.conn.WriteMessage(websocket.BinaryMessage, data)
}

// Finalize flushes buffered audio so the pending transcript is emitted as
// final. The session stays open.
func (r *StreamingRecognizer) Finalize() error {
	if r.closed.Load() {
		return fmt.Errorf("recognizer closed")
	}
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.conn.WriteMessage(websocket.TextMessage, []byte("finalize"))
}

// Transcripts returns the channel of transcript deltas. It is closed when
// the session ends.
func (r *StreamingRecognizer) Transcripts() <-chan TranscriptDelta {
	return r.transcripts
}

// Done returns a channel closed when the session ends.
func (r *StreamingRecognizer) Done() <-chan struct{} {
	return r.done
}

// Close tears the session down. Safe to call more than once.
func (r *StreamingRecognizer) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	r.cancel()

	r.writeMu.Lock()
	r.conn.WriteMessage(websocket.TextMessage, []byte("done"))
	r.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	r.writeMu.Unlock()

	return r.conn.Close()
}
