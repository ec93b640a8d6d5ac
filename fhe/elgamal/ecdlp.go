package elgamal

import (
	"math"

	"filippo.io/edwards25519"
)

// SolveDiscreteLog finds m in [0, maxAmount] such that m*G equals msgPoint,
// the message point obtained from DecryptToPoint.
//
// Uses Baby-Step Giant-Step: O(sqrt(maxAmount)) time and space.
// Returns (m, true) on success and (0, false) if m > maxAmount.
func SolveDiscreteLog(msgPoint *edwards25519.Point, maxAmount uint64) (uint64, bool) {
	table := newBabyTable(maxAmount)
	return table.lookup(msgPoint, maxAmount)
}

// babyTable is the precomputed baby-step side of BSGS: the points i*G for
// i in [0, n] keyed by compressed encoding. A table built for some bound is
// reusable for every lookup with the same bound, so the engine caches one.
type babyTable struct {
	n     uint64
	steps map[[PointLength]byte]uint64
}

func newBabyTable(maxAmount uint64) *babyTable {
	n := uint64(math.Ceil(math.Sqrt(float64(maxAmount + 1))))

	steps := make(map[[PointLength]byte]uint64, n+1)
	g := edwards25519.NewGeneratorPoint()
	baby := edwards25519.NewIdentityPoint()
	var key [PointLength]byte
	copy(key[:], baby.Bytes()) // 0*G = identity point
	steps[key] = 0
	for i := uint64(1); i <= n; i++ {
		baby.Add(baby, g)
		copy(key[:], baby.Bytes())
		steps[key] = i
	}
	return &babyTable{n: n, steps: steps}
}

// lookup walks the giant steps: it checks (msgPoint - j*n*G) against the
// baby table for j in [0, maxAmount/n+1].
func (t *babyTable) lookup(msgPoint *edwards25519.Point, maxAmount uint64) (uint64, bool) {
	stride := new(edwards25519.Point).ScalarBaseMult(scalarFromUint64(t.n))
	giant := new(edwards25519.Point).Set(msgPoint)
	var key [PointLength]byte
	maxJ := maxAmount/t.n + 1
	for j := uint64(0); j <= maxJ; j++ {
		copy(key[:], giant.Bytes())
		if babyI, ok := t.steps[key]; ok {
			if result := j*t.n + babyI; result <= maxAmount {
				return result, true
			}
		}
		if j < maxJ {
			giant.Subtract(giant, stride)
		}
	}
	return 0, false
}
