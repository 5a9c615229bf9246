package speech

import (
	"encoding/binary"
	"math"
	"testing"
)

func pcmFromSamples(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func TestRMSLevel(t *testing.T) {
	t.Parallel()

	if got := RMSLevel(nil); got != 0 {
		t.Errorf("RMSLevel(nil) = %v, want 0", got)
	}
	if got := RMSLevel(pcmFromSamples([]int16{0, 0, 0, 0})); got != 0 {
		t.Errorf("RMSLevel(silence) = %v, want 0", got)
	}

	// A constant full-scale signal has RMS of ~1.0.
	full := pcmFromSamples([]int16{32767, 32767, 32767, 32767})
	if got := RMSLevel(full); math.Abs(got-1.0) > 0.001 {
		t.Errorf("RMSLevel(full scale) = %v, want ~1.0", got)
	}

	// Half scale.
	half := pcmFromSamples([]int16{16384, -16384, 16384, -16384})
	if got := RMSLevel(half); math.Abs(got-0.5) > 0.001 {
		t.Errorf("RMSLevel(half scale) = %v, want ~0.5", got)
	}
}

func TestPeakLevel(t *testing.T) {
	t.Parallel()

	if got := PeakLevel(nil); got != 0 {
		t.Errorf("PeakLevel(nil) = %v, want 0", got)
	}

	pcm := pcmFromSamples([]int16{100, -32768, 5000})
	if got := PeakLevel(pcm); got != 1.0 {
		t.Errorf("PeakLevel = %v, want 1.0 for min int16", got)
	}
}
