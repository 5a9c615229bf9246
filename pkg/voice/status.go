package voice

// Orb names the animation the front end renders for a state.
type Orb string

const (
	OrbResting   Orb = "resting"
	OrbListening Orb = "listening"
	OrbThinking  Orb = "thinking"
	OrbSpeaking  Orb = "speaking"
	OrbMuted     Orb = "muted"
	OrbErrored   Orb = "errored"
)

// Status is what the voice screen shows for a state: a label and an orb
// animation.
type Status struct {
	Text string
	Orb  Orb
}

// StatusFor maps a state to its display status. The mapping is total: every
// state, including an unknown value, yields a usable status, so rendering
// can never fail.
func StatusFor(s State) Status {
	switch s {
	case StateIdle, StateReady:
		return Status{Text: "Tap to speak", Orb: OrbResting}
	case StateListening:
		return Status{Text: "Listening...", Orb: OrbListening}
	case StateProcessing:
		return Status{Text: "Thinking...", Orb: OrbThinking}
	case StateResponding, StateSpeaking:
		return Status{Text: "Speaking...", Orb: OrbSpeaking}
	case StateMuted, StatePaused:
		return Status{Text: "Muted", Orb: OrbMuted}
	case StateError:
		return Status{Text: "Something went wrong", Orb: OrbErrored}
	case StateTerminated:
		return Status{Text: "Session ended", Orb: OrbResting}
	default:
		return Status{Text: "Tap to speak", Orb: OrbResting}
	}
}

// ErrorStatusFor refines the error status with the held error kind.
func ErrorStatusFor(kind ErrorKind) Status {
	switch kind {
	case ErrorKindPermission:
		return Status{Text: "Microphone access needed", Orb: OrbErrored}
	case ErrorKindConnection:
		return Status{Text: "Connection lost", Orb: OrbErrored}
	default:
		return Status{Text: "Something went wrong", Orb: OrbErrored}
	}
}
