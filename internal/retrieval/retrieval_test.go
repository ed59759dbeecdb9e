package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuseRRFLiteralScenario(t *testing.T) {
	t.Parallel()
	vector := rankedList{"A", "B", "C"}
	sparseList := rankedList{"C", "D", "A"}

	fused := FuseRRF([]rankedList{vector, sparseList}, 60)

	scoreOf := func(id string) float64 {
		for _, f := range fused {
			if f.id == id {
				return f.score
			}
		}
		t.Fatalf("id %s not found in fused results", id)
		return 0
	}

	assert.InDelta(t, 1.0/61+1.0/63, scoreOf("A"), 1e-9)
	assert.InDelta(t, 1.0/62, scoreOf("B"), 1e-9)
	assert.InDelta(t, 1.0/63+1.0/61, scoreOf("C"), 1e-9)
	assert.InDelta(t, 1.0/62, scoreOf("D"), 1e-9)

	// A and C tie at the top, B and D tie behind them.
	assert.ElementsMatch(t, []string{"A", "C"}, []string{fused[0].id, fused[1].id})
	assert.ElementsMatch(t, []string{"B", "D"}, []string{fused[2].id, fused[3].id})
}

func TestFuseRRFMonotonicity(t *testing.T) {
	t.Parallel()
	base := []rankedList{{"A", "B", "C"}, {"C", "D", "A"}}
	baseFused := FuseRRF(base, 60)
	var baseScore float64
	for _, f := range baseFused {
		if f.id == "B" {
			baseScore = f.score
		}
	}

	improved := []rankedList{{"B", "A", "C"}, {"C", "D", "A"}}
	improvedFused := FuseRRF(improved, 60)
	var improvedScore float64
	for _, f := range improvedFused {
		if f.id == "B" {
			improvedScore = f.score
		}
	}

	assert.GreaterOrEqual(t, improvedScore, baseScore)
}
