package values

import (
	"math/big"
)

// maxDenominator bounds decimal to rational approximation.
const maxDenominator = 1000000

// limitDenominator returns the rational closest to x whose denominator is
// at most max. It walks the continued fraction expansion of |x| and picks
// between the last convergent and the best semiconvergent.
func limitDenominator(x *big.Rat, max int64) *big.Rat {
	bound := big.NewInt(max)
	if x.Denom().Cmp(bound) <= 0 {
		return new(big.Rat).Set(x)
	}

	negative := x.Sign() < 0
	target := new(big.Rat).Abs(x)

	p0, q0 := big.NewInt(0), big.NewInt(1)
	p1, q1 := big.NewInt(1), big.NewInt(0)
	n := new(big.Int).Set(target.Num())
	d := new(big.Int).Set(target.Denom())

	for {
		a := new(big.Int).Div(n, d)

		q2 := new(big.Int).Mul(a, q1)
		q2.Add(q2, q0)
		if q2.Cmp(bound) > 0 {
			break
		}

		p2 := new(big.Int).Mul(a, p1)
		p2.Add(p2, p0)

		p0, q0, p1, q1 = p1, q1, p2, q2

		r := new(big.Int).Mul(a, d)
		n, d = d, r.Sub(n, r)
	}

	k := new(big.Int).Sub(bound, q0)
	k.Div(k, q1)

	semiNum := new(big.Int).Mul(k, p1)
	semiNum.Add(semiNum, p0)
	semiDen := new(big.Int).Mul(k, q1)
	semiDen.Add(semiDen, q0)

	semi := new(big.Rat).SetFrac(semiNum, semiDen)
	convergent := new(big.Rat).SetFrac(p1, q1)

	best := semi
	if distance(convergent, target).Cmp(distance(semi, target)) <= 0 {
		best = convergent
	}

	if negative {
		best.Neg(best)
	}

	return best
}

func distance(a, b *big.Rat) *big.Rat {
	d := new(big.Rat).Sub(a, b)
	return d.Abs(d)
}
