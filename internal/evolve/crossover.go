package evolve

import (
	"math/rand"

	"golang.org/x/exp/constraints"

	"lgp/internal/errors"
	"lgp/internal/program"
)

// crossoverAttempts is the resample budget before a pair is skipped.
const crossoverAttempts = 20

// Crossover is linear two-parent segment exchange. Segment positions,
// lengths, and the post-crossover program lengths are all constrained; a
// draw violating a constraint is resampled up to the attempt budget.
type Crossover[V constraints.Float] struct {
	MaxSegmentLength    int
	MaxDistance         int // max |i1 - i2| between segment starts
	MaxLengthDifference int // max l2 - l1 between segment lengths
	MinLength           int // program length bounds after the swap
	MaxLength           int
}

// Apply swaps one segment between the two programs in place. On failure
// after the attempt budget both programs are left unchanged and an
// OperatorFailure is returned; callers skip the pair and emit a
// diagnostic.
func (c *Crossover[V]) Apply(a, b *program.Program[V], rng *rand.Rand) error {
	p1, p2 := a, b
	if p1.Len() > p2.Len() {
		p1, p2 = p2, p1
	}

	for attempt := 0; attempt < crossoverAttempts; attempt++ {
		i1 := rng.Intn(p1.Len())
		i2 := drawNear(rng, i1, c.MaxDistance, p2.Len())

		l1 := 1 + rng.Intn(min(c.MaxSegmentLength, p1.Len()-i1))
		l2hi := min(c.MaxSegmentLength, p2.Len()-i2)
		l2hi = min(l2hi, l1+c.MaxLengthDifference)
		if l2hi < l1 {
			continue
		}
		l2 := l1 + rng.Intn(l2hi-l1+1)

		len1 := p1.Len() - l1 + l2
		len2 := p2.Len() - l2 + l1
		if len1 < c.MinLength || len1 > c.MaxLength || len2 < c.MinLength || len2 > c.MaxLength {
			continue
		}

		seg1 := p1.Instructions[i1 : i1+l1]
		seg2 := p2.Instructions[i2 : i2+l2]
		p1.Instructions = spliceSegment(p1.Instructions, i1, l1, seg2)
		p2.Instructions = spliceSegment(p2.Instructions, i2, l2, seg1)
		return nil
	}
	return &errors.OperatorFailure{Operator: "crossover", Attempts: crossoverAttempts}
}

// drawNear draws an index in [0, size) within distance of center.
func drawNear(rng *rand.Rand, center, distance, size int) int {
	lo := max(center-distance, 0)
	hi := min(center+distance, size-1)
	return lo + rng.Intn(hi-lo+1)
}

// spliceSegment replaces instructions[at:at+length] with the replacement
// segment, which must not alias the receiver slice.
func spliceSegment[V constraints.Float](instructions []*program.Instruction[V], at, length int, replacement []*program.Instruction[V]) []*program.Instruction[V] {
	out := make([]*program.Instruction[V], 0, len(instructions)-length+len(replacement))
	out = append(out, instructions[:at]...)
	out = append(out, replacement...)
	out = append(out, instructions[at+length:]...)
	return out
}
