package voice

import "testing"

func TestStatusFor_TotalMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state State
		text  string
		orb   Orb
	}{
		{StateIdle, "Tap to speak", OrbResting},
		{StateReady, "Tap to speak", OrbResting},
		{StateListening, "Listening...", OrbListening},
		{StateProcessing, "Thinking...", OrbThinking},
		{StateResponding, "Speaking...", OrbSpeaking},
		{StateSpeaking, "Speaking...", OrbSpeaking},
		{StateMuted, "Muted", OrbMuted},
		{StatePaused, "Muted", OrbMuted},
		{StateError, "Something went wrong", OrbErrored},
		{StateTerminated, "Session ended", OrbResting},
	}

	for _, tt := range tests {
		got := StatusFor(tt.state)
		if got.Text != tt.text || got.Orb != tt.orb {
			t.Errorf("StatusFor(%v) = %+v, want {%q %q}", tt.state, got, tt.text, tt.orb)
		}
	}
}

func TestStatusFor_UnknownStateFallsBack(t *testing.T) {
	t.Parallel()

	got := StatusFor(State(99))
	if got.Text == "" || got.Orb == "" {
		t.Fatalf("StatusFor(unknown) = %+v, want a usable status", got)
	}
	if got.Orb != OrbResting {
		t.Errorf("StatusFor(unknown).Orb = %q, want resting fallback", got.Orb)
	}
}

func TestErrorStatusFor(t *testing.T) {
	t.Parallel()

	if got := ErrorStatusFor(ErrorKindPermission); got.Text != "Microphone access needed" {
		t.Errorf("permission status = %+v", got)
	}
	if got := ErrorStatusFor(ErrorKindConnection); got.Text != "Connection lost" {
		t.Errorf("connection status = %+v", got)
	}
	if got := ErrorStatusFor(ErrorKindNone); got.Orb != OrbErrored {
		t.Errorf("fallback status = %+v, want errored orb", got)
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	if got := StateListening.String(); got != "LISTENING" {
		t.Errorf("String() = %q, want LISTENING", got)
	}
	if got := State(99).String(); got != "UNKNOWN" {
		t.Errorf("String() = %q, want UNKNOWN", got)
	}
}
