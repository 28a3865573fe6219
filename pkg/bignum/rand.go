package bignum

import (
	"fmt"
	"io"
)

// Rand returns a uniformly random value of at most bits bits read from r.
// When forceTop is set the most significant bit is set, so the result has
// exactly bits bits. It panics if bits is negative.
func Rand(r io.Reader, bits int, forceTop bool) (*Int, error) {
	if bits < 0 {
		panic("bignum: negative bit count")
	}
	if bits == 0 {
		return zero, nil
	}

	buf := make([]byte, (bits+7)/8)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}

	if extra := uint(len(buf)*8 - bits); extra > 0 {
		buf[0] &= 0xff >> extra
	}
	if forceTop {
		buf[0] |= 1 << uint((bits-1)%8)
	}
	return FromBytes(buf), nil
}
