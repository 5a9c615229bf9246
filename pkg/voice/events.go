package voice

// Event is the interface for all voice session events.
type Event interface {
	// EventType returns the event type string for serialization.
	EventType() string
}

// StateChangedEvent is emitted when the session state changes.
type StateChangedEvent struct {
	From State `json:"from"`
	To   State `json:"to"`
}

func (e *StateChangedEvent) EventType() string { return "state.changed" }

// TranscriptDeltaEvent is emitted as recognition updates arrive.
type TranscriptDeltaEvent struct {
	Delta   string `json:"delta"`
	IsFinal bool   `json:"is_final,omitempty"`
}

func (e *TranscriptDeltaEvent) EventType() string { return "transcript.delta" }

// AudioLevelEvent carries the current microphone level for the orb meter.
type AudioLevelEvent struct {
	Level float64 `json:"level"`
}

func (e *AudioLevelEvent) EventType() string { return "audio.level" }

// ResponseEvent is emitted when the assistant's reply arrives and playback
// is about to start.
type ResponseEvent struct {
	Text string `json:"text"`
}

func (e *ResponseEvent) EventType() string { return "response" }

// ErrorEvent is emitted when the session enters the error state.
type ErrorEvent struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *ErrorEvent) EventType() string { return "error" }

// EndedEvent is emitted once when the session is destroyed.
type EndedEvent struct {
	Reason string `json:"reason,omitempty"`
}

func (e *EndedEvent) EventType() string { return "ended" }
