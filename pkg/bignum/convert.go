package bignum

import (
	"errors"
	"fmt"
	"strings"
)

// Alphabet lists the digit symbols for bases 2 through 95, lowest value first.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_=!@#$%^&*()[]{}|;:,.<>/?`~ \\'\"+-"

// MaxBase is the largest base accepted by FromString and Text.
const MaxBase = len(Alphabet)

var (
	// ErrBase is returned for a base outside 2..MaxBase.
	ErrBase = errors.New("base out of range")
	// ErrSyntax is returned for a string that is not a number in the given base.
	ErrSyntax = errors.New("invalid digit")
)

var digitValue = func() [256]int8 {
	var v [256]int8
	for i := range v {
		v[i] = -1
	}
	for i := 0; i < len(Alphabet); i++ {
		v[Alphabet[i]] = int8(i)
	}
	return v
}()

func validBase(base int) error {
	if base < 2 || base > MaxBase {
		return fmt.Errorf("%w: %d", ErrBase, base)
	}
	return nil
}

// FromString parses s as a number in the given base. Bases up to 36 accept
// letters in either case.
func FromString(s string, base int) (*Int, error) {
	if err := validBase(base); err != nil {
		return nil, err
	}
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrSyntax)
	}
	if base <= 36 {
		s = strings.ToUpper(s)
	}

	var z nat
	for i := 0; i < len(s); i++ {
		d := digitValue[s[i]]
		if d < 0 || int(d) >= base {
			return nil, fmt.Errorf("%w: %q in base %d", ErrSyntax, s[i], base)
		}
		z = mulAddWord(z, Word(base), Word(d))
	}
	return newInt(z), nil
}

// mulAddWord returns z*y + r, growing z as needed.
func mulAddWord(z nat, y, r Word) nat {
	out := make(nat, len(z)+1)
	out[len(z)] = mulAddVWW(out[:len(z)], z, y, r)
	return out.norm()
}

// Text returns x in the given base. Bases up to 36 use lowercase letters.
// It panics on an invalid base.
func (x *Int) Text(base int) string {
	if err := validBase(base); err != nil {
		panic("bignum: " + err.Error())
	}
	if x.IsZero() {
		return "0"
	}

	var digits []byte
	q := x.abs
	for len(q) > 0 {
		var r Word
		q, r = natDivW(q, Word(base))
		digits = append(digits, Alphabet[r])
	}
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	s := string(digits)
	if base <= 36 {
		s = strings.ToLower(s)
	}
	return s
}

// String returns x in base 10.
func (x *Int) String() string { return x.Text(10) }

// Hex returns x as lowercase hexadecimal without leading zeros.
func (x *Int) Hex() string { return x.Text(16) }

// FromHex parses a hexadecimal string. Odd lengths are accepted.
func FromHex(s string) (*Int, error) {
	return FromString(s, 16)
}

// MustFromHex is like FromHex but panics on malformed input. It is meant
// for package-level constants.
func MustFromHex(s string) *Int {
	x, err := FromHex(s)
	if err != nil {
		panic(fmt.Sprintf("bignum: bad hex constant: %v", err))
	}
	return x
}

// FromBytes interprets b as a big-endian unsigned integer.
func FromBytes(b []byte) *Int {
	const wordBytes = W / 8
	z := make(nat, (len(b)+wordBytes-1)/wordBytes)
	for i := 0; i < len(b); i++ {
		pos := len(b) - 1 - i
		z[i/wordBytes] |= Word(b[pos]) << (uint(i%wordBytes) * 8)
	}
	return newInt(z)
}

// Bytes returns the minimal big-endian encoding of x. Zero encodes as an
// empty slice.
func (x *Int) Bytes() []byte {
	n := (x.BitLen() + 7) / 8
	return x.FillBytes(make([]byte, n))
}

// FillBytes writes x big-endian into buf, zero-padded on the left, and
// returns buf. It panics if x does not fit.
func (x *Int) FillBytes(buf []byte) []byte {
	if (x.BitLen()+7)/8 > len(buf) {
		panic("bignum: buffer too small")
	}
	clear(buf)
	const wordBytes = W / 8
	for i, w := range x.abs {
		for j := 0; j < wordBytes; j++ {
			pos := len(buf) - 1 - (i*wordBytes + j)
			if pos < 0 {
				break
			}
			buf[pos] = byte(w >> (uint(j) * 8))
		}
	}
	return buf
}
