// Package srp implements both roles of the SRP-6a exchange used by the
// identity service, on top of the bignum engine.
//
// Hashes are SHA-1 over minimal big-endian encodings, the session key is
// K = SHA-512(S), and the proofs are M1 = H(A | B | S) and M2 = H(A | M1 | S).
package srp

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/fzdarsky/tipi/pkg/bignum"
)

// Option configures a Client or Server.
type Option func(*options)

type options struct {
	rand io.Reader
}

// WithRand sets the entropy source for ephemerals. Defaults to crypto/rand.
func WithRand(r io.Reader) Option {
	return func(o *options) { o.rand = r }
}

func buildOptions(opts []Option) options {
	o := options{rand: rand.Reader}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Client is the password-holding side of one exchange. A Client is used for
// a single attempt and must not be reused.
type Client struct {
	group    *Group
	mont     *bignum.Montgomery
	identity string
	password string
	rand     io.Reader
	state    State

	a, A    *bignum.Int
	salt, B *bignum.Int
	x, u, S *bignum.Int
	m1      *bignum.Int
	key     []byte
}

// NewClient creates a client for identity I with password P.
func NewClient(group *Group, identity, password string, opts ...Option) *Client {
	o := buildOptions(opts)
	return &Client{
		group:    group,
		mont:     bignum.NewMontgomery(group.N),
		identity: identity,
		password: password,
		rand:     o.rand,
	}
}

// NewClientWithEphemeral creates a client with a fixed private ephemeral a.
// It exists for known-answer tests.
func NewClientWithEphemeral(group *Group, identity, password string, a *bignum.Int) *Client {
	c := NewClient(group, identity, password)
	c.a = a
	return c
}

// State returns the current protocol state.
func (c *Client) State() State { return c.state }

// Identity returns I.
func (c *Client) Identity() string { return c.identity }

// ComputeA draws the private ephemeral a (unless fixed) and returns A = g^a mod N.
func (c *Client) ComputeA() (*bignum.Int, error) {
	if err := c.state.expect(Created, "ComputeA"); err != nil {
		return nil, err
	}

	public := func(a *bignum.Int) *bignum.Int { return c.mont.Exp(c.group.G, a) }
	if c.a != nil {
		c.A = public(c.a)
	} else {
		a, A, err := drawEphemeral(c.rand, public, c.group.N)
		if err != nil {
			return nil, err
		}
		c.a, c.A = a, A
	}

	c.state = AwaitingPeerPublic
	return c.A, nil
}

// SetServerPublic records the salt and B from the server and derives S,
// the proofs and the session key.
//
//nolint:gocritic // B is SRP notation
func (c *Client) SetServerPublic(salt, B *bignum.Int) error {
	if err := c.state.expect(AwaitingPeerPublic, "SetServerPublic"); err != nil {
		return err
	}
	N := c.group.N
	if bignum.Mod(B, N).IsZero() {
		c.fail()
		return fmt.Errorf("%w: B mod N == 0", ErrInvalidPublic)
	}
	c.salt, c.B = salt, B

	c.x = ComputeX(c.identity, c.password, salt)
	c.u = ComputeU(c.A, B)

	// S = (B - k*g^x)^((a + u*x) mod N) mod N
	kgx := bignum.ModMul(c.group.K, c.mont.Exp(c.group.G, c.x), N)
	base := bignum.ModSub(B, kgx, N)
	exp := bignum.ModAdd(c.a, bignum.ModMul(c.u, c.x, N), N)
	c.S = c.mont.Exp(base, exp)

	c.m1 = computeM1(c.A, B, c.S)
	c.key = sessionKey(c.S)
	c.state = AwaitingVerification
	return nil
}

// M1 returns the client proof.
func (c *Client) M1() (*bignum.Int, error) {
	if err := c.state.expect(AwaitingVerification, "M1"); err != nil {
		return nil, err
	}
	return c.m1, nil
}

// VerifyM2 checks the server proof. A mismatch moves the client to Failed.
//
//nolint:gocritic // M2 is SRP notation
func (c *Client) VerifyM2(M2 *bignum.Int) error {
	if err := c.state.expect(AwaitingVerification, "VerifyM2"); err != nil {
		return err
	}
	if !proofsEqual(M2, computeM2(c.A, c.m1, c.S)) {
		c.fail()
		return fmt.Errorf("%w: server proof mismatch", ErrVerification)
	}
	c.state = Verified
	return nil
}

// SessionKey returns K once the server proof has been verified.
func (c *Client) SessionKey() ([]byte, error) {
	if err := c.state.expect(Verified, "SessionKey"); err != nil {
		return nil, err
	}
	out := make([]byte, len(c.key))
	copy(out, c.key)
	return out, nil
}

// Clear drops the password and all derived secrets. The client is left in
// the Failed state unless it already verified.
func (c *Client) Clear() {
	c.password = ""
	c.a, c.x, c.S = nil, nil, nil
	clear(c.key)
	c.key = nil
	if c.state != Verified {
		c.state = Failed
	}
}

func (c *Client) fail() {
	c.state = Failed
	c.a, c.x, c.S = nil, nil, nil
	clear(c.key)
	c.key = nil
}
