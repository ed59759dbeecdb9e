package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// Deterministic is a Backend that hashes byte 3-grams into a fixed-size
// vector, optionally L2-normalized. Adapted from the teacher's superseded
// deterministic embedder so tests don't require network access.
type Deterministic struct {
	Dim       int
	Normalize bool
	Seed      uint64
}

func (d *Deterministic) Embed(_ context.Context, _ string, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = d.embedOne(t)
	}
	return out, nil
}

func (d *Deterministic) embedOne(s string) []float32 {
	dim := d.Dim
	if dim <= 0 {
		dim = 64
	}
	v := make([]float32, dim)
	b := []byte(s)
	if len(b) < 3 {
		addGram(d.Seed, b, v)
	} else {
		for i := 0; i <= len(b)-3; i++ {
			addGram(d.Seed, b[i:i+3], v)
		}
	}
	if d.Normalize {
		var sum float64
		for _, x := range v {
			sum += float64(x) * float64(x)
		}
		if sum > 0 {
			inv := float32(1.0 / math.Sqrt(sum))
			for i := range v {
				v[i] *= inv
			}
		}
	}
	return v
}

func addGram(seed uint64, gram []byte, v []float32) {
	h := fnv.New64a()
	if seed != 0 {
		var tmp [8]byte
		for i := 0; i < 8; i++ {
			tmp[i] = byte(seed >> (8 * i))
		}
		_, _ = h.Write(tmp[:])
	}
	_, _ = h.Write(gram)
	hv := h.Sum64()
	idx := int(hv % uint64(len(v)))
	w := float32(int32(hv>>32)) / float32(1<<31)
	v[idx] += w
}
