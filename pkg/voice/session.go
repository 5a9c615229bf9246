package voice

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/lyra-assist/lyra-go/pkg/voice/speech"
)

// Config configures a voice session. Recognizer and Synthesizer may be nil;
// the state machine then runs without speech I/O, which is how front ends
// drive it before microphone permission is granted.
type Config struct {
	Recognizer  speech.Recognizer
	Synthesizer speech.Synthesizer
	Logger      *slog.Logger

	// EventBuffer is the capacity of the events channel. Default 64.
	EventBuffer int
}

// TransitionError reports a signal that is not valid in the current state.
type TransitionError struct {
	State  State
	Signal string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("voice: %s not allowed in state %s", e.Signal, e.State)
}

// Session is the voice-mode state machine. All transitions are driven by
// explicit signals; there are no timers and no automatic recovery. Methods
// are safe for concurrent use.
type Session struct {
	id     string
	logger *slog.Logger

	mu          sync.RWMutex
	state       State
	prior       State // state saved while suspended
	errKind     ErrorKind
	errMessage  string
	transcript  strings.Builder
	audioLevel  float64
	recognizer  speech.Recognizer
	synthesizer speech.Synthesizer

	// eventsMu orders emits against the channel close in End.
	eventsMu     sync.Mutex
	eventsClosed bool
	events       chan Event
	done         chan struct{}
}

// NewSession creates a session in the idle state.
func NewSession(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	buffer := cfg.EventBuffer
	if buffer <= 0 {
		buffer = 64
	}
	return &Session{
		id:          uuid.NewString(),
		logger:      logger,
		state:       StateIdle,
		recognizer:  cfg.Recognizer,
		synthesizer: cfg.Synthesizer,
		events:      make(chan Event, buffer),
		done:        make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsMuted reports whether the session is suspended.
func (s *Session) IsMuted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Suspended()
}

// Transcript returns the text accumulated for the current turn.
func (s *Session) Transcript() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transcript.String()
}

// AudioLevel returns the most recent microphone level in [0, 1].
func (s *Session) AudioLevel() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.audioLevel
}

// ErrorKind returns the held error kind, non-empty exactly when the session
// is in the error state.
func (s *Session) ErrorKind() ErrorKind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errKind
}

// Err returns the held error kind and message. The kind is non-empty exactly
// when the session is in the error state.
func (s *Session) Err() (ErrorKind, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errKind, s.errMessage
}

// Events returns the channel of session events. It is closed by End.
func (s *Session) Events() <-chan Event { return s.events }

// Done returns a channel closed when the session has ended.
func (s *Session) Done() <-chan struct{} { return s.done }

// Attach replaces the speech streams, typically after a retry reconnects
// them. Only valid while the session is in an entry state.
func (s *Session) Attach(r speech.Recognizer, syn speech.Synthesizer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Entry() {
		return &TransitionError{State: s.state, Signal: "attach"}
	}
	s.recognizer = r
	s.synthesizer = syn
	return nil
}

// StartListening begins capturing user speech. Valid from an entry state.
func (s *Session) StartListening() error {
	s.mu.Lock()
	if !s.state.Entry() {
		defer s.mu.Unlock()
		return &TransitionError{State: s.state, Signal: "start listening"}
	}
	s.transcript.Reset()
	from := s.state
	s.state = StateListening
	s.mu.Unlock()

	s.emit(&StateChangedEvent{From: from, To: StateListening})
	return nil
}

// PushAudio forwards a captured PCM chunk to the recognizer and emits a
// level event for the orb meter. Chunks arriving outside the listening state
// are dropped; while muted that is the whole point.
func (s *Session) PushAudio(pcm []byte) error {
	s.mu.RLock()
	state := s.state
	rec := s.recognizer
	s.mu.RUnlock()

	if state != StateListening {
		return nil
	}

	if rec != nil {
		if err := rec.SendAudio(pcm); err != nil {
			s.Fail(ErrorKindConnection, "speech connection lost")
			return err
		}
	}

	level := min(max(speech.RMSLevel(pcm), 0), 1)
	s.mu.Lock()
	s.audioLevel = level
	s.mu.Unlock()
	s.emit(&AudioLevelEvent{Level: level})
	return nil
}

// AddTranscript records an incremental recognition result while listening.
func (s *Session) AddTranscript(text string, final bool) error {
	s.mu.Lock()
	if s.state != StateListening {
		defer s.mu.Unlock()
		return &TransitionError{State: s.state, Signal: "transcript"}
	}
	s.transcript.WriteString(text)
	s.mu.Unlock()

	s.emit(&TranscriptDeltaEvent{Delta: text, IsFinal: final})
	return nil
}

// CommitTranscript ends the user's turn and hands it to the backend. The
// recognizer is flushed and the accumulated transcript returned.
func (s *Session) CommitTranscript() (string, error) {
	s.mu.Lock()
	if s.state != StateListening {
		defer s.mu.Unlock()
		return "", &TransitionError{State: s.state, Signal: "commit"}
	}
	s.state = StateProcessing
	transcript := s.transcript.String()
	rec := s.recognizer
	s.mu.Unlock()

	if rec != nil {
		if err := rec.Finalize(); err != nil {
			s.logger.Warn("recognizer flush failed", "error", err)
		}
	}
	s.emit(&StateChangedEvent{From: StateListening, To: StateProcessing})
	return transcript, nil
}

// BeginResponse delivers the assistant's reply and starts playback.
func (s *Session) BeginResponse(text string) error {
	s.mu.Lock()
	if s.state != StateProcessing {
		defer s.mu.Unlock()
		return &TransitionError{State: s.state, Signal: "response"}
	}
	s.state = StateSpeaking
	syn := s.synthesizer
	s.mu.Unlock()

	s.emit(&StateChangedEvent{From: StateProcessing, To: StateSpeaking})
	s.emit(&ResponseEvent{Text: text})

	if syn != nil {
		if err := syn.Speak(text); err != nil {
			s.Fail(ErrorKindConnection, "speech connection lost")
			return err
		}
	}
	return nil
}

// FinishPlayback returns to idle once the reply has been played.
func (s *Session) FinishPlayback() error {
	s.mu.Lock()
	if s.state != StateSpeaking {
		defer s.mu.Unlock()
		return &TransitionError{State: s.state, Signal: "playback finished"}
	}
	s.state = StateIdle
	s.transcript.Reset()
	s.mu.Unlock()

	s.emit(&StateChangedEvent{From: StateSpeaking, To: StateIdle})
	return nil
}

// ToggleMute suspends the session, or restores the state that was active
// when it was suspended. Toggling twice always lands back on the original
// state; in a terminal state the toggle is a no-op.
func (s *Session) ToggleMute() State {
	s.mu.Lock()
	if s.state.Terminal() {
		defer s.mu.Unlock()
		return s.state
	}

	var from, to State
	if s.state.Suspended() {
		from, to = s.state, s.prior
	} else {
		from, to = s.state, StateMuted
		s.prior = s.state
	}
	s.state = to
	s.mu.Unlock()

	s.emit(&StateChangedEvent{From: from, To: to})
	return to
}

// Fail moves the session to the error state from any non-terminal state.
// Speech streams are closed; recovery requires an explicit Retry. Failing
// an already-failed session replaces the held error.
func (s *Session) Fail(kind ErrorKind, message string) {
	if kind == ErrorKindNone {
		kind = ErrorKindConnection
	}

	s.mu.Lock()
	if s.state == StateTerminated {
		s.mu.Unlock()
		return
	}
	from := s.state
	s.state = StateError
	s.errKind = kind
	s.errMessage = message
	rec, syn := s.recognizer, s.synthesizer
	s.recognizer, s.synthesizer = nil, nil
	s.mu.Unlock()

	closeStreams(rec, syn)
	s.logger.Warn("voice session failed", "session_id", s.id, "kind", string(kind), "message", message)

	if from != StateError {
		s.emit(&StateChangedEvent{From: from, To: StateError})
	}
	s.emit(&ErrorEvent{Kind: kind, Message: message})
}

// Retry clears the held error and returns to idle. It is the only way out
// of the error state and is invalid anywhere else.
func (s *Session) Retry() error {
	s.mu.Lock()
	if s.state != StateError {
		defer s.mu.Unlock()
		return &TransitionError{State: s.state, Signal: "retry"}
	}
	s.state = StateIdle
	s.errKind = ErrorKindNone
	s.errMessage = ""
	s.transcript.Reset()
	s.mu.Unlock()

	s.emit(&StateChangedEvent{From: StateError, To: StateIdle})
	return nil
}

// End destroys the session: both speech streams are closed so no further
// audio is captured or played, the ended event is emitted, and the events
// channel is closed. Safe to call more than once.
func (s *Session) End(reason string) {
	s.mu.Lock()
	if s.state == StateTerminated {
		s.mu.Unlock()
		return
	}
	from := s.state
	s.state = StateTerminated
	s.errKind = ErrorKindNone
	s.errMessage = ""
	rec, syn := s.recognizer, s.synthesizer
	s.recognizer, s.synthesizer = nil, nil
	s.mu.Unlock()

	closeStreams(rec, syn)
	close(s.done)

	s.emit(&StateChangedEvent{From: from, To: StateTerminated})
	s.emit(&EndedEvent{Reason: reason})

	s.eventsMu.Lock()
	s.eventsClosed = true
	close(s.events)
	s.eventsMu.Unlock()

	s.logger.Info("voice session ended", "session_id", s.id, "reason", reason)
}

func closeStreams(rec speech.Recognizer, syn speech.Synthesizer) {
	if rec != nil {
		rec.Close()
	}
	if syn != nil {
		syn.Close()
	}
}

// emit sends an event without blocking; events are dropped when the channel
// is full or the session has ended.
func (s *Session) emit(event Event) {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	if s.eventsClosed {
		return
	}
	select {
	case s.events <- event:
	default:
	}
}
