// Package bignum implements the nonnegative arbitrary-precision arithmetic
// that SRP needs: schoolbook multiplication, Knuth division, Montgomery
// modular exponentiation and modular inverses.
//
// Values are immutable. Every operation allocates its result and never
// writes to its operands, so an *Int may be shared between goroutines.
package bignum

// Int is a nonnegative integer of arbitrary size. The zero value is 0.
type Int struct {
	abs nat
}

var (
	zero = &Int{}
	one  = &Int{abs: nat{1}}
)

func newInt(x nat) *Int {
	return &Int{abs: x.norm()}
}

// Zero returns 0.
func Zero() *Int { return zero }

// One returns 1.
func One() *Int { return one }

// FromUint64 returns x as an Int.
func FromUint64(x uint64) *Int {
	if x == 0 {
		return zero
	}
	if W == 64 {
		return newInt(nat{Word(x)})
	}
	return newInt(nat{Word(x), Word(x >> 32)})
}

// Limbs returns a copy of the little-endian limbs of x.
func (x *Int) Limbs() []Word {
	return x.abs.clone()
}

// FromLimbs builds an Int from little-endian limbs. Missing high limbs are zero.
func FromLimbs(limbs []Word) *Int {
	return newInt(nat(limbs).clone())
}

// IsZero reports whether x == 0.
func (x *Int) IsZero() bool { return len(x.abs.norm()) == 0 }

// IsOdd reports whether x is odd.
func (x *Int) IsOdd() bool { return len(x.abs) > 0 && x.abs[0]&1 == 1 }

// BitLen returns the length of x in bits. BitLen of 0 is 0.
func (x *Int) BitLen() int { return natBitLen(x.abs) }

// Bit returns bit i of x.
func (x *Int) Bit(i int) uint {
	if i < 0 {
		panic("bignum: negative bit index")
	}
	limb := i / W
	if limb >= len(x.abs) {
		return 0
	}
	return uint(x.abs[limb]>>(uint(i)%W)) & 1
}

// Cmp returns -1, 0 or +1 depending on whether x is less than, equal to or
// greater than y.
func (x *Int) Cmp(y *Int) int { return natCmp(x.abs, y.abs) }

// Equal reports whether x == y.
func (x *Int) Equal(y *Int) bool { return x.Cmp(y) == 0 }

// Uint64 returns the low 64 bits of x.
func (x *Int) Uint64() uint64 {
	var v uint64
	for i := 0; i < len(x.abs) && i*W < 64; i++ {
		v |= uint64(x.abs[i]) << (uint(i) * W)
	}
	return v
}

// Add returns x + y.
func Add(x, y *Int) *Int { return newInt(natAdd(x.abs, y.abs)) }

// Sub returns x - y. When y > x the result is the two's complement of
// y - x over max(len(x), len(y))+1 limbs; use ModSub for modular
// differences.
func Sub(x, y *Int) *Int {
	z, _ := natSub(x.abs, y.abs)
	return newInt(z)
}

// Mul returns x * y.
func Mul(x, y *Int) *Int { return newInt(natMul(x.abs, y.abs)) }

// Lsh returns x << n.
func Lsh(x *Int, n uint) *Int { return newInt(natShl(x.abs, n)) }

// Rsh returns x >> n.
func Rsh(x *Int, n uint) *Int { return newInt(natShr(x.abs, n)) }

// DivMod returns the quotient and remainder of x / n. It panics if n is zero.
func DivMod(x, n *Int) (q, r *Int) {
	qn, rn := natDivMod(x.abs, n.abs)
	return newInt(qn), newInt(rn)
}

// Mod returns x mod n. It panics if n is zero.
func Mod(x, n *Int) *Int {
	return newInt(natMod(x.abs, n.abs))
}

// ModAdd returns (x + y) mod n.
func ModAdd(x, y, n *Int) *Int {
	return newInt(natMod(natAdd(x.abs, y.abs), n.abs))
}

// ModSub returns (x - y) mod n. Negative differences are corrected by
// adding n until the value is in range.
func ModSub(x, y, n *Int) *Int {
	xr, yr := natMod(x.abs, n.abs), natMod(y.abs, n.abs)
	if natCmp(xr, yr) >= 0 {
		z, _ := natSub(xr, yr)
		return newInt(z)
	}
	z, _ := natSub(natAdd(xr, n.abs), yr)
	return newInt(z)
}

// ModMul returns (x * y) mod n.
func ModMul(x, y, n *Int) *Int {
	return newInt(natMod(natMul(x.abs, y.abs), n.abs))
}
