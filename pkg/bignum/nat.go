package bignum

import "math/bits"

// nat is an unsigned magnitude stored as little-endian limbs.
// Normalized values carry no leading zero limbs; zero is the empty slice.
type nat []Word

func (z nat) norm() nat {
	i := len(z)
	for i > 0 && z[i-1] == 0 {
		i--
	}
	return z[:i]
}

func (z nat) clone() nat {
	if len(z) == 0 {
		return nil
	}
	c := make(nat, len(z))
	copy(c, z)
	return c
}

// expand returns a copy of x with exactly n limbs. x must fit.
func (z nat) expand(n int) nat {
	e := make(nat, n)
	copy(e, z)
	return e
}

func natFromWord(w Word) nat {
	if w == 0 {
		return nil
	}
	return nat{w}
}

// natCmp compares x and y, treating missing high limbs as zero.
func natCmp(x, y nat) int {
	x, y = x.norm(), y.norm()
	switch {
	case len(x) < len(y):
		return -1
	case len(x) > len(y):
		return 1
	}
	for i := len(x) - 1; i >= 0; i-- {
		switch {
		case x[i] < y[i]:
			return -1
		case x[i] > y[i]:
			return 1
		}
	}
	return 0
}

func natAdd(x, y nat) nat {
	if len(x) < len(y) {
		x, y = y, x
	}
	z := make(nat, len(x)+1)
	c := addVV(z[:len(y)], x[:len(y)], y)
	if len(x) > len(y) {
		c = addVW(z[len(y):len(x)], x[len(y):], c)
	}
	z[len(x)] = c
	return z.norm()
}

// natSub returns x - y over max(len(x), len(y))+1 limbs. When y > x the
// result is the two's complement of y - x at that width and neg is true.
func natSub(x, y nat) (z nat, neg bool) {
	n := max(len(x), len(y)) + 1
	xe, ye := x.expand(n), y.expand(n)
	z = make(nat, n)
	b := subVV(z, xe, ye)
	return z, b != 0
}

func natMul(x, y nat) nat {
	x, y = x.norm(), y.norm()
	if len(x) == 0 || len(y) == 0 {
		return nil
	}
	if len(x) < len(y) {
		x, y = y, x
	}
	z := make(nat, len(x)+len(y))
	for i, d := range y {
		if d != 0 {
			z[len(x)+i] = addMulVVW(z[i:i+len(x)], x, d)
		}
	}
	return z.norm()
}

// natShl returns x << s.
func natShl(x nat, s uint) nat {
	x = x.norm()
	if len(x) == 0 {
		return nil
	}
	limbs := int(s / W)
	z := make(nat, len(x)+limbs+1)
	z[len(x)+limbs] = shlVU(z[limbs:len(x)+limbs], x, s%W)
	return z.norm()
}

// natShr returns x >> s.
func natShr(x nat, s uint) nat {
	x = x.norm()
	limbs := int(s / W)
	if limbs >= len(x) {
		return nil
	}
	z := make(nat, len(x)-limbs)
	shrVU(z, x[limbs:], s%W)
	return z.norm()
}

func natBitLen(x nat) int {
	x = x.norm()
	if len(x) == 0 {
		return 0
	}
	return (len(x)-1)*W + bits.Len(uint(x[len(x)-1]))
}

// natDivW returns x / y and x mod y for a single-limb divisor.
func natDivW(x nat, y Word) (q nat, r Word) {
	if y == 0 {
		panic("bignum: division by zero")
	}
	x = x.norm()
	if len(x) == 0 {
		return nil, 0
	}
	q = make(nat, len(x))
	r = divWVW(q, 0, x, y)
	return q.norm(), r
}

// natDivMod returns the quotient and remainder of u / v using schoolbook
// long division (Knuth, TAOCP vol. 2, 4.3.1, Algorithm D).
func natDivMod(u, v nat) (q, r nat) {
	u, v = u.norm(), v.norm()
	if len(v) == 0 {
		panic("bignum: division by zero")
	}
	if natCmp(u, v) < 0 {
		return nil, u.clone()
	}
	if len(v) == 1 {
		q, rw := natDivW(u, v[0])
		return q, natFromWord(rw)
	}

	n := len(v)
	m := len(u) - n

	// Normalize so the divisor's top bit is set.
	shift := uint(bits.LeadingZeros(uint(v[n-1])))
	vn := make(nat, n)
	shlVU(vn, v, shift)
	un := make(nat, len(u)+1)
	un[len(u)] = shlVU(un[:len(u)], u, shift)

	q = make(nat, m+1)
	qv := make(nat, n+1)
	vtop, vnext := vn[n-1], vn[n-2]

	for j := m; j >= 0; j-- {
		qhat := wordMax
		if ujn := un[j+n]; ujn != vtop {
			qh, rh := bits.Div(uint(ujn), uint(un[j+n-1]), uint(vtop))
			qhat = Word(qh)
			rhat := Word(rh)
			for {
				hi, lo := bits.Mul(uint(qhat), uint(vnext))
				if Word(hi) < rhat || (Word(hi) == rhat && Word(lo) <= un[j+n-2]) {
					break
				}
				qhat--
				prev := rhat
				rhat += vtop
				if rhat < prev {
					break
				}
			}
		}

		qv[n] = mulAddVWW(qv[:n], vn, qhat, 0)
		if subVV(un[j:j+n+1], un[j:j+n+1], qv) != 0 {
			c := addVV(un[j:j+n], un[j:j+n], vn)
			un[j+n] += c
			qhat--
		}
		q[j] = qhat
	}

	r = make(nat, n)
	shrVU(r, un[:n], shift)
	return q.norm(), r.norm()
}

func natMod(x, n nat) nat {
	_, r := natDivMod(x, n)
	return r
}
