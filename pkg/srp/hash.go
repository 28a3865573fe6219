package srp

import (
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // SHA-1 is fixed by the wire protocol
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/fzdarsky/tipi/pkg/bignum"
)

const (
	// EphemeralBits is the length of the private ephemerals a and b.
	EphemeralBits = 384

	// SaltBits is the length of salts made by NewSalt.
	SaltBits = 128

	// DigestSize is the byte length of u, x, M1 and M2.
	DigestSize = sha1.Size
)

// hashInts returns SHA-1 over the minimal big-endian encodings of xs.
func hashInts(xs ...*bignum.Int) *bignum.Int {
	h := sha1.New() //nolint:gosec
	for _, x := range xs {
		h.Write(x.Bytes())
	}
	return bignum.FromBytes(h.Sum(nil))
}

// ComputeX derives the private key x = H(s | H(I | ":" | P)).
func ComputeX(identity, password string, salt *bignum.Int) *bignum.Int {
	inner := sha1.Sum([]byte(identity + ":" + password)) //nolint:gosec

	h := sha1.New() //nolint:gosec
	h.Write(salt.Bytes())
	h.Write(inner[:])
	return bignum.FromBytes(h.Sum(nil))
}

// ComputeU returns the scrambling parameter u = H(A | B).
func ComputeU(A, B *bignum.Int) *bignum.Int { //nolint:gocritic // SRP notation
	return hashInts(A, B)
}

// ComputeVerifier returns v = g^x mod N for storage by the server.
func ComputeVerifier(group *Group, salt *bignum.Int, identity, password string) *bignum.Int {
	return bignum.ModExp(group.G, ComputeX(identity, password, salt), group.N)
}

// NewSalt draws a random salt.
func NewSalt(r io.Reader) (*bignum.Int, error) {
	if r == nil {
		r = rand.Reader
	}
	s, err := bignum.Rand(r, SaltBits, true)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return s, nil
}

func computeM1(A, B, S *bignum.Int) *bignum.Int { //nolint:gocritic
	return hashInts(A, B, S)
}

func computeM2(A, M1, S *bignum.Int) *bignum.Int { //nolint:gocritic
	return hashInts(A, M1, S)
}

// sessionKey returns K = SHA-512(S).
func sessionKey(S *bignum.Int) []byte { //nolint:gocritic
	sum := sha512.Sum512(S.Bytes())
	return sum[:]
}

// DigestHex encodes a proof as fixed-width lowercase hex.
func DigestHex(x *bignum.Int) string {
	return hex.EncodeToString(x.FillBytes(make([]byte, DigestSize)))
}

// drawEphemeral returns a random private ephemeral and its public value
// g^e mod N, redrawing until the public value is nonzero mod N.
func drawEphemeral(r io.Reader, public func(*bignum.Int) *bignum.Int, n *bignum.Int) (priv, pub *bignum.Int, err error) {
	for {
		priv, err = bignum.Rand(r, EphemeralBits, false)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to generate ephemeral: %w", err)
		}
		pub = public(priv)
		if !bignum.Mod(pub, n).IsZero() {
			return priv, pub, nil
		}
	}
}

// proofsEqual compares two digests in constant time.
func proofsEqual(got, want *bignum.Int) bool {
	if got.BitLen() > DigestSize*8 {
		return false
	}
	a := got.FillBytes(make([]byte, DigestSize))
	b := want.FillBytes(make([]byte, DigestSize))
	return subtle.ConstantTimeCompare(a, b) == 1
}
