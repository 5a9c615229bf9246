// Package voice implements the voice-mode state machine for Lyra front ends.
//
// A Session moves through a small set of states driven entirely by explicit
// signals from the UI and the speech streams. There are no timers and no
// automatic recovery: errors are terminal until the user retries.
//
// # State Machine
//
//	IDLE → LISTENING → PROCESSING → SPEAKING → IDLE
//	  │        │            │           │
//	  └────────┴── MUTED ←──┴───────────┘   (toggle restores the prior state)
//
//	any non-terminal state → ERROR → IDLE   (explicit Retry only)
//	any state → TERMINATED                  (End)
//
// # Usage
//
//	session := voice.NewSession(voice.Config{
//	    Recognizer:  recognizer,
//	    Synthesizer: synthesizer,
//	})
//
//	session.StartListening()
//	session.PushAudio(pcmChunk)
//	transcript, _ := session.CommitTranscript()
//	session.BeginResponse(reply)
//	session.FinishPlayback()
//
//	for event := range session.Events() {
//	    switch e := event.(type) {
//	    case *voice.StateChangedEvent:
//	        render(voice.StatusFor(e.To))
//	    case *voice.AudioLevelEvent:
//	        meter(e.Level)
//	    }
//	}
//
// StatusFor maps every state, including unknown values, to a label and orb
// animation, so rendering never fails.
package voice
