package postproc

import (
	"github.com/chewxy/math32"
)

// Softmax returns a normalised copy of logits.
func Softmax(logits []float32) []float32 {
	if len(logits) == 0 {
		return nil
	}

	hi := logits[0]
	for _, v := range logits[1:] {
		if v > hi {
			hi = v
		}
	}

	out := make([]float32, len(logits))
	var sum float32
	for i, v := range logits {
		out[i] = math32.Exp(v - hi)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
