package bignum

// Montgomery holds the per-modulus constants and scratch space for
// Montgomery multiplication modulo an odd n. A Montgomery value owns its
// scratch buffer and must not be used by more than one goroutine at a time.
type Montgomery struct {
	n      nat
	nPrime Word
	rr     nat // R² mod n
	unit   nat // 1, widened to len(n)
	t      nat
}

// NewMontgomery prepares a Montgomery context for the odd modulus n.
// It panics if n is zero or even.
func NewMontgomery(n *Int) *Montgomery {
	nn := n.abs.norm()
	if len(nn) == 0 {
		panic("bignum: zero modulus")
	}
	if nn[0]&1 == 0 {
		panic("bignum: Montgomery reduction needs an odd modulus")
	}
	k := len(nn)
	m := &Montgomery{
		n:      nn.clone(),
		nPrime: montInverse(nn[0]),
		unit:   make(nat, k),
		t:      make(nat, 2*k),
	}
	m.unit[0] = 1
	m.rr = natMod(natShl(nat{1}, uint(2*k*W)), nn).expand(k)
	return m
}

// MontInverse returns n' = -n⁻¹ mod 2^W for the odd modulus n.
func MontInverse(n *Int) Word {
	if !n.IsOdd() {
		panic("bignum: Montgomery reduction needs an odd modulus")
	}
	return montInverse(n.abs[0])
}

// montInverse computes -n0⁻¹ mod 2^W by Newton iteration. Each step
// doubles the number of correct low bits, starting from 3.
func montInverse(n0 Word) Word {
	inv := n0
	for i := 0; i < 6; i++ {
		inv *= 2 - n0*inv
	}
	return -inv
}

// Mont returns x·y·R⁻¹ mod n where R = 2^(len(n)·W) and nPrime is
// MontInverse(n). x and y must be less than n.
func Mont(x, y, n *Int, nPrime Word) *Int {
	nn := n.abs.norm()
	k := len(nn)
	if k == 0 {
		panic("bignum: zero modulus")
	}
	z := make(nat, k)
	montMul(z, x.abs.expand(k), y.abs.expand(k), nn, nPrime, make(nat, 2*k))
	return newInt(z)
}

// montMul sets z = x·y·R⁻¹ mod n using coarsely integrated operand
// scanning. x, y and z have len(n) limbs and z may alias x or y; t is
// scratch of 2·len(n) limbs.
func montMul(z, x, y, n nat, nPrime Word, t nat) {
	k := len(n)
	clear(t)
	var c Word
	for i := 0; i < k; i++ {
		c2 := addMulVVW(t[i:k+i], x, y[i])
		q := t[i] * nPrime
		c3 := addMulVVW(t[i:k+i], n, q)
		cx := c + c2
		cy := cx + c3
		t[k+i] = cy
		if cx < c2 || cy < c3 {
			c = 1
		} else {
			c = 0
		}
	}
	if c != 0 || natCmp(t[k:], n) >= 0 {
		subVV(z, t[k:], n)
		return
	}
	copy(z, t[k:])
}

// Mul returns x·y·R⁻¹ mod n. x and y must be less than n.
func (m *Montgomery) Mul(x, y *Int) *Int {
	k := len(m.n)
	z := make(nat, k)
	montMul(z, x.abs.expand(k), y.abs.expand(k), m.n, m.nPrime, m.t)
	return newInt(z)
}

// Exp returns x^y mod n.
func (m *Montgomery) Exp(x, y *Int) *Int {
	k := len(m.n)
	if len(m.n) == 1 && m.n[0] == 1 {
		return zero
	}
	if y.IsZero() {
		return one
	}

	xm := natMod(x.abs, m.n).expand(k)
	montMul(xm, xm, m.rr, m.n, m.nPrime, m.t)

	// acc = R mod n, the Montgomery form of 1.
	acc := make(nat, k)
	montMul(acc, m.unit, m.rr, m.n, m.nPrime, m.t)

	for i := y.BitLen() - 1; i >= 0; i-- {
		montMul(acc, acc, acc, m.n, m.nPrime, m.t)
		if y.Bit(i) == 1 {
			montMul(acc, acc, xm, m.n, m.nPrime, m.t)
		}
	}
	montMul(acc, acc, m.unit, m.n, m.nPrime, m.t)
	return newInt(acc)
}

// ModExp returns x^y mod n. Odd moduli use Montgomery multiplication and
// even moduli plain square-and-multiply. y == 0 gives 1 mod n. It panics
// if n is zero.
func ModExp(x, y, n *Int) *Int {
	if n.IsZero() {
		panic("bignum: zero modulus")
	}
	if n.IsOdd() {
		return NewMontgomery(n).Exp(x, y)
	}
	if y.IsZero() {
		return Mod(one, n)
	}
	base := Mod(x, n)
	acc := Mod(one, n)
	for i := y.BitLen() - 1; i >= 0; i-- {
		acc = ModMul(acc, acc, n)
		if y.Bit(i) == 1 {
			acc = ModMul(acc, base, n)
		}
	}
	return acc
}
