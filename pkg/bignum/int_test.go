package bignum_test

import (
	"math/big"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fzdarsky/tipi/pkg/bignum"
)

func toBig(x *bignum.Int) *big.Int {
	return new(big.Int).SetBytes(x.Bytes())
}

func assertInt(t *testing.T, want *big.Int, got *bignum.Int, msgAndArgs ...any) {
	t.Helper()
	assert.Equal(t, want.Text(16), got.Hex(), msgAndArgs...)
}

// randInt returns a value of up to bits bits from a deterministic source.
func randInt(rng *rand.Rand, bits int) *bignum.Int {
	buf := make([]byte, (bits+7)/8)
	for i := range buf {
		buf[i] = byte(rng.Uint32())
	}
	if extra := len(buf)*8 - bits; extra > 0 {
		buf[0] &= 0xff >> extra
	}
	return bignum.FromBytes(buf)
}

func newRNG() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestArithmeticMatchesMathBig(t *testing.T) {
	rng := newRNG()
	sizes := []int{1, 7, 63, 64, 65, 128, 300, 1024, 2048}

	for _, xs := range sizes {
		for _, ys := range sizes {
			x, y := randInt(rng, xs), randInt(rng, ys)
			bx, by := toBig(x), toBig(y)

			assertInt(t, new(big.Int).Add(bx, by), bignum.Add(x, y), "add %d/%d", xs, ys)
			assertInt(t, new(big.Int).Mul(bx, by), bignum.Mul(x, y), "mul %d/%d", xs, ys)

			if by.Sign() == 0 {
				continue
			}
			q, r := bignum.DivMod(x, y)
			bq, br := new(big.Int).QuoRem(bx, by, new(big.Int))
			assertInt(t, bq, q, "quo %d/%d", xs, ys)
			assertInt(t, br, r, "rem %d/%d", xs, ys)
			assertInt(t, br, bignum.Mod(x, y), "mod %d/%d", xs, ys)
		}
	}
}

func TestDivModQuotientCorrection(t *testing.T) {
	// Divisors whose top limbs force the qhat estimate to be corrected.
	cases := []struct {
		name string
		u, v string
	}{
		{"max top limb", "ffffffffffffffffffffffffffffffffffffffffffffffff", "ffffffffffffffff0000000000000001"},
		{"add back", "7fffffffffffffff800000000000000000000000000000000000000000000000", "800000000000000000000000000000010000000000000001"},
		{"equal", "123456789abcdef0123456789abcdef0", "123456789abcdef0123456789abcdef0"},
		{"smaller", "1234", "123456789abcdef0123456789abcdef0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := bignum.MustFromHex(tc.u)
			v := bignum.MustFromHex(tc.v)
			q, r := bignum.DivMod(u, v)

			bq, br := new(big.Int).QuoRem(toBig(u), toBig(v), new(big.Int))
			assertInt(t, bq, q)
			assertInt(t, br, r)
		})
	}
}

func TestSubTwosComplement(t *testing.T) {
	got := bignum.Sub(bignum.FromUint64(1), bignum.FromUint64(2))

	// One limb each, so the result spans two limbs.
	want := new(big.Int).Lsh(big.NewInt(1), 2*bignum.W)
	want.Sub(want, big.NewInt(1))
	assertInt(t, want, got)

	assert.Equal(t, "3", bignum.Sub(bignum.FromUint64(5), bignum.FromUint64(2)).String())
}

func TestModularHelpers(t *testing.T) {
	rng := newRNG()
	n := randInt(rng, 521)
	bn := toBig(n)

	for i := 0; i < 20; i++ {
		x, y := randInt(rng, 600), randInt(rng, 600)
		bx, by := toBig(x), toBig(y)

		wantAdd := new(big.Int).Add(bx, by)
		assertInt(t, wantAdd.Mod(wantAdd, bn), bignum.ModAdd(x, y, n))

		wantSub := new(big.Int).Sub(bx, by)
		assertInt(t, wantSub.Mod(wantSub, bn), bignum.ModSub(x, y, n))

		wantMul := new(big.Int).Mul(bx, by)
		assertInt(t, wantMul.Mod(wantMul, bn), bignum.ModMul(x, y, n))
	}
}

func TestModSubNegativeDifference(t *testing.T) {
	got := bignum.ModSub(bignum.FromUint64(3), bignum.FromUint64(5), bignum.FromUint64(7))
	assert.Equal(t, "5", got.String())
}

func TestOperandsAreNotMutated(t *testing.T) {
	x := bignum.MustFromHex("ffffffffffffffffffffffffffffffff")
	y := bignum.MustFromHex("123456789abcdef")
	n := bignum.MustFromHex("fffffffffffffffffffffffffffffffd")
	xl, yl, nl := x.Limbs(), y.Limbs(), n.Limbs()

	bignum.Add(x, y)
	bignum.Sub(y, x)
	bignum.Mul(x, y)
	bignum.DivMod(x, y)
	bignum.ModSub(y, x, n)
	bignum.ModExp(x, y, n)
	bignum.InverseMod(y, n)

	assert.Equal(t, xl, x.Limbs())
	assert.Equal(t, yl, y.Limbs())
	assert.Equal(t, nl, n.Limbs())
}

func TestMismatchedLimbLengths(t *testing.T) {
	padded := bignum.FromLimbs([]bignum.Word{5, 0, 0, 0})
	assert.True(t, padded.Equal(bignum.FromUint64(5)))
	assert.Equal(t, 3, padded.BitLen())
	assert.Equal(t, "a", bignum.Add(padded, bignum.FromUint64(5)).Hex())
}

func TestBitAccessors(t *testing.T) {
	x := bignum.MustFromHex("8000000000000000000000000000000001")

	assert.Equal(t, 136, x.BitLen())
	assert.Equal(t, uint(1), x.Bit(0))
	assert.Equal(t, uint(0), x.Bit(1))
	assert.Equal(t, uint(1), x.Bit(135))
	assert.Equal(t, uint(0), x.Bit(4000))
	assert.True(t, x.IsOdd())
	assert.False(t, bignum.Zero().IsOdd())
	assert.True(t, bignum.Zero().IsZero())
	assert.Equal(t, 0, bignum.Zero().BitLen())
	assert.Equal(t, uint64(1), x.Uint64())
	assert.Equal(t, uint64(1<<40+3), bignum.FromUint64(1<<40+3).Uint64())
}

func TestShifts(t *testing.T) {
	x := bignum.MustFromHex("123456789abcdef0fedcba9876543210")
	for _, s := range []uint{0, 1, 31, 64, 65, 130} {
		want := new(big.Int).Lsh(toBig(x), s)
		assertInt(t, want, bignum.Lsh(x, s), "lsh %d", s)

		want = new(big.Int).Rsh(toBig(x), s)
		assertInt(t, want, bignum.Rsh(x, s), "rsh %d", s)
	}
}

func TestDivisionByZeroPanics(t *testing.T) {
	assert.Panics(t, func() { bignum.DivMod(bignum.One(), bignum.Zero()) })
	assert.Panics(t, func() { bignum.Mod(bignum.One(), bignum.Zero()) })
	assert.Panics(t, func() { bignum.ModExp(bignum.One(), bignum.One(), bignum.Zero()) })
}

func TestGCD(t *testing.T) {
	rng := newRNG()
	for i := 0; i < 20; i++ {
		common := randInt(rng, 100)
		x := bignum.Mul(randInt(rng, 300), common)
		y := bignum.Mul(randInt(rng, 200), common)

		want := new(big.Int).GCD(nil, nil, toBig(x), toBig(y))
		assertInt(t, want, bignum.GCD(x, y))
	}
	assert.Equal(t, "12", bignum.GCD(bignum.FromUint64(12), bignum.Zero()).String())
}

func TestInverseMod(t *testing.T) {
	rng := newRNG()
	n := bignum.MustFromHex("7fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffed")
	bn := toBig(n)

	for i := 0; i < 20; i++ {
		x := randInt(rng, 256)
		if bignum.Mod(x, n).IsZero() {
			continue
		}
		inv, ok := bignum.InverseMod(x, n)
		require.True(t, ok)
		assertInt(t, new(big.Int).ModInverse(toBig(x), bn), inv)
		assert.Equal(t, "1", bignum.ModMul(x, inv, n).String())
	}

	_, ok := bignum.InverseMod(bignum.FromUint64(6), bignum.FromUint64(9))
	assert.False(t, ok)

	inv, ok := bignum.InverseMod(bignum.FromUint64(3), bignum.FromUint64(7))
	require.True(t, ok)
	assert.Equal(t, "5", inv.String())
}
