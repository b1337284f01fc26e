package dataset

import "math/rand/v2"

// Generator produces reproducible random vectors.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator seeded with seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Uniform returns n vectors with components uniform in [0, 1).
func (g *Generator) Uniform(n, dim int) [][]float32 {
	out := make([][]float32, n)
	flat := make([]float32, n*dim)
	for i := range flat {
		flat[i] = g.rng.Float32()
	}
	for i := range out {
		out[i] = flat[i*dim : (i+1)*dim : (i+1)*dim]
	}
	return out
}

// Normal returns n vectors with standard normal components.
func (g *Generator) Normal(n, dim int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		v := make([]float32, dim)
		for j := range v {
			v[j] = float32(g.rng.NormFloat64())
		}
		out[i] = v
	}
	return out
}
