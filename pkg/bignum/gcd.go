package bignum

// GCD returns the greatest common divisor of x and y. GCD(0, 0) is 0.
func GCD(x, y *Int) *Int {
	a, b := x, y
	for !b.IsZero() {
		a, b = b, Mod(a, b)
	}
	return a
}

// InverseMod returns the z in [0, n) with x·z ≡ 1 (mod n), and whether such
// a z exists. It panics if n is zero.
func InverseMod(x, n *Int) (*Int, bool) {
	if n.IsZero() {
		panic("bignum: zero modulus")
	}
	if n.Equal(one) {
		return zero, true
	}

	// Extended Euclid on magnitudes. The Bézout coefficients alternate in
	// sign, so only the sign of the current one needs tracking.
	r0, r1 := n, Mod(x, n)
	t0, t1 := zero, one
	t0Neg, t1Neg := false, false
	for !r1.IsZero() {
		q, r := DivMod(r0, r1)
		r0, r1 = r1, r
		t0, t1 = t1, Add(t0, Mul(q, t1))
		t0Neg, t1Neg = t1Neg, !t1Neg
	}
	if !r0.Equal(one) {
		return nil, false
	}
	t0 = Mod(t0, n)
	if t0Neg && !t0.IsZero() {
		return Sub(n, t0), true
	}
	return t0, true
}
