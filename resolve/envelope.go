package resolve

import "github.com/SpecCade/SpecCade-sub006/spec"

// applyADSR shapes the buffer in place with a time-based ADSR envelope.
// Attack/decay run from the start, release runs over the buffer tail; the
// gain of each sample is a pure function of its index.
func applyADSR(buf []float64, env spec.Envelope, rate int) {
	n := len(buf)
	if n == 0 {
		return
	}

	attack := int(env.Attack * float64(rate))
	decay := int(env.Decay * float64(rate))
	release := int(env.Release * float64(rate))
	if release > n {
		release = n
	}
	sustain := env.Sustain

	for i := range buf {
		var gain float64
		switch {
		case i < attack:
			gain = float64(i) / float64(attack)
		case i < attack+decay:
			gain = 1 - (1-sustain)*float64(i-attack)/float64(decay)
		default:
			gain = sustain
		}
		if release > 0 && i >= n-release {
			gain *= float64(n-i) / float64(release)
		}
		buf[i] *= gain
	}
}
