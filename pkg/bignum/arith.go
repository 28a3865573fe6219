package bignum

import "math/bits"

// Word is a single limb of an Int. Its width is the platform word size.
type Word uint

const (
	// W is the limb width in bits.
	W = bits.UintSize

	wordMax = ^Word(0)
)

// addVV sets z = x + y and returns the carry. All slices have the same length.
func addVV(z, x, y []Word) (c Word) {
	for i := range z {
		zi, cc := bits.Add(uint(x[i]), uint(y[i]), uint(c))
		z[i] = Word(zi)
		c = Word(cc)
	}
	return c
}

// subVV sets z = x - y and returns the borrow. All slices have the same length.
func subVV(z, x, y []Word) (b Word) {
	for i := range z {
		zi, bb := bits.Sub(uint(x[i]), uint(y[i]), uint(b))
		z[i] = Word(zi)
		b = Word(bb)
	}
	return b
}

// addVW sets z = x + y and returns the carry.
func addVW(z, x []Word, y Word) (c Word) {
	c = y
	for i := range z {
		zi, cc := bits.Add(uint(x[i]), uint(c), 0)
		z[i] = Word(zi)
		c = Word(cc)
	}
	return c
}

// subVW sets z = x - y and returns the borrow.
func subVW(z, x []Word, y Word) (b Word) {
	b = y
	for i := range z {
		zi, bb := bits.Sub(uint(x[i]), uint(b), 0)
		z[i] = Word(zi)
		b = Word(bb)
	}
	return b
}

// mulAddVWW sets z = x*y + r and returns the high word.
func mulAddVWW(z, x []Word, y, r Word) (c Word) {
	c = r
	for i := range z {
		hi, lo := bits.Mul(uint(x[i]), uint(y))
		lo, cc := bits.Add(lo, uint(c), 0)
		z[i] = Word(lo)
		c = Word(hi + cc)
	}
	return c
}

// addMulVVW sets z += x*y and returns the carry out of the top word.
func addMulVVW(z, x []Word, y Word) (c Word) {
	for i := range z {
		hi, lo := bits.Mul(uint(x[i]), uint(y))
		lo, cc := bits.Add(lo, uint(z[i]), 0)
		hi += cc
		lo, cc = bits.Add(lo, uint(c), 0)
		hi += cc
		z[i] = Word(lo)
		c = Word(hi)
	}
	return c
}

// shlVU sets z = x << s for 0 <= s < W and returns the bits shifted out.
func shlVU(z, x []Word, s uint) (c Word) {
	if s == 0 {
		copy(z, x)
		return 0
	}
	if len(z) == 0 {
		return 0
	}
	rs := W - s
	c = x[len(z)-1] >> rs
	for i := len(z) - 1; i > 0; i-- {
		z[i] = x[i]<<s | x[i-1]>>rs
	}
	z[0] = x[0] << s
	return c
}

// shrVU sets z = x >> s for 0 <= s < W and returns the bits shifted out.
func shrVU(z, x []Word, s uint) (c Word) {
	if s == 0 {
		copy(z, x)
		return 0
	}
	if len(z) == 0 {
		return 0
	}
	rs := W - s
	c = x[0] << rs
	for i := 0; i < len(z)-1; i++ {
		z[i] = x[i]>>s | x[i+1]<<rs
	}
	z[len(z)-1] = x[len(z)-1] >> s
	return c
}

// divWVW sets z = (xn<<W + x) / y and returns the remainder. xn must be < y.
func divWVW(z []Word, xn Word, x []Word, y Word) (r Word) {
	r = xn
	for i := len(z) - 1; i >= 0; i-- {
		q, rr := bits.Div(uint(r), uint(x[i]), uint(y))
		z[i] = Word(q)
		r = Word(rr)
	}
	return r
}
