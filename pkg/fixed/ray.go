package fixed

// RAY is the 1e27 scale used for rates and indexes; BPS is 1e4.
var (
	RAY     = MustParse("1000000000000000000000000000")
	halfRAY = RAY.Div(New(2))
	BPS     = New(10_000)
)

// FromBps converts basis points to a RAY-scaled ratio.
func FromBps(bps uint64) Int { return New(bps).MulDiv(RAY, BPS) }

// Ratio returns num/den scaled by RAY, floored. A zero denominator yields zero.
func Ratio(num, den Int) Int { return num.MulDiv(RAY, den) }

// RayMul returns a*b/RAY rounded half up.
func RayMul(a, b Int) Int {
	return a.Mul(b).Add(halfRAY).Div(RAY)
}

// RayDiv returns a*RAY/b rounded half up. A zero divisor yields zero.
func RayDiv(a, b Int) Int {
	if b.IsZero() {
		return Int{}
	}
	half := b.Add(New(1)).Div(New(2))
	return a.Mul(RAY).Add(half).Div(b)
}

// BpsOf returns floor(a*bps/10000).
func BpsOf(a Int, bps uint64) Int { return a.MulDiv(New(bps), BPS) }

// Percent renders a RAY ratio as a percentage with the given precision,
// e.g. 0.0625e27 with places=2 is "6.25".
func Percent(r Int, places int32) string {
	return r.Decimal(25).StringFixed(places)
}
