package voice

// State represents the current state of a voice session.
type State int

const (
	// StateIdle is the entry state before the user starts speaking.
	StateIdle State = iota
	// StateReady is equivalent to StateIdle; kept as a distinct value so
	// front ends that distinguish "cold" and "warmed up" entry can.
	StateReady
	// StateListening is when user speech is being captured.
	StateListening
	// StateProcessing is when the backend is generating a response.
	StateProcessing
	// StateResponding is when a response has arrived and playback is
	// starting. Equivalent to StateSpeaking.
	StateResponding
	// StateSpeaking is when synthesized audio is being played.
	StateSpeaking
	// StateMuted suspends the session; the prior state is restored on
	// unmute.
	StateMuted
	// StatePaused is equivalent to StateMuted.
	StatePaused
	// StateError is terminal until an explicit retry.
	StateError
	// StateTerminated means the session has been destroyed.
	StateTerminated
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateReady:
		return "READY"
	case StateListening:
		return "LISTENING"
	case StateProcessing:
		return "PROCESSING"
	case StateResponding:
		return "RESPONDING"
	case StateSpeaking:
		return "SPEAKING"
	case StateMuted:
		return "MUTED"
	case StatePaused:
		return "PAUSED"
	case StateError:
		return "ERROR"
	case StateTerminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// Entry reports whether s is an entry state a finished turn returns to.
func (s State) Entry() bool {
	return s == StateIdle || s == StateReady
}

// Suspended reports whether s is a mute/pause overlay state.
func (s State) Suspended() bool {
	return s == StateMuted || s == StatePaused
}

// Terminal reports whether the session cannot leave s without an explicit
// retry or teardown.
func (s State) Terminal() bool {
	return s == StateError || s == StateTerminated
}

// ErrorKind classifies the two recognized voice-mode failures.
type ErrorKind string

const (
	// ErrorKindNone means no error is held.
	ErrorKindNone ErrorKind = ""
	// ErrorKindPermission means microphone permission was denied.
	ErrorKindPermission ErrorKind = "permission"
	// ErrorKindConnection means the speech or backend connection dropped.
	ErrorKindConnection ErrorKind = "connection"
)
