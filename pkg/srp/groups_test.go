package srp_test

import (
	"crypto/sha1" //nolint:gosec
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fzdarsky/tipi/pkg/bignum"
	"github.com/fzdarsky/tipi/pkg/srp"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		strength  int
		generator string
	}{
		{1024, "2"},
		{1536, "2"},
		{2048, "2"},
		{3072, "5"},
		{4096, "5"},
		{6144, "5"},
		{8192, "19"},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.strength), func(t *testing.T) {
			g, err := srp.Lookup(tt.strength)
			require.NoError(t, err)

			assert.Equal(t, tt.strength, g.Strength)
			assert.Equal(t, tt.strength, g.N.BitLen())
			assert.Equal(t, tt.strength/8, g.Size())
			assert.True(t, g.N.IsOdd())
			assert.Equal(t, tt.generator, g.G.String())

			// k = H(N | PAD(g))
			h := sha1.New() //nolint:gosec
			h.Write(g.N.Bytes())
			h.Write(g.G.FillBytes(make([]byte, g.Size())))
			assert.Equal(t, bignum.FromBytes(h.Sum(nil)).Hex(), g.K.Hex())
		})
	}
}

func TestLookupUnknownStrength(t *testing.T) {
	for _, s := range []int{0, 512, 1000, 16384} {
		_, err := srp.Lookup(s)
		assert.ErrorIs(t, err, srp.ErrUnknownStrength)
	}
}

func TestStrengths(t *testing.T) {
	assert.Equal(t, []int{1024, 1536, 2048, 3072, 4096, 6144, 8192}, srp.Strengths())
}

func TestLookupReturnsSharedGroup(t *testing.T) {
	a, err := srp.Lookup(srp.DefaultStrength)
	require.NoError(t, err)
	b, err := srp.Lookup(srp.DefaultStrength)
	require.NoError(t, err)
	assert.Same(t, a, b)
}
