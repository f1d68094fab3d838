package resolve

// resampleLinear converts a buffer from one sample rate to another with
// fixed linear interpolation. The source position of each output sample
// is computed from scratch (no accumulated error), so the output is
// identical on every platform.
func resampleLinear(in []float64, srcRate, dstRate int) []float64 {
	if len(in) == 0 || srcRate == dstRate {
		return in
	}

	outLen := len(in) * dstRate / srcRate
	if outLen < 1 {
		outLen = 1
	}
	out := make([]float64, outLen)
	ratio := float64(srcRate) / float64(dstRate)
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := pos - float64(j)
		out[i] = in[j]*(1-frac) + in[j+1]*frac
	}
	return out
}
