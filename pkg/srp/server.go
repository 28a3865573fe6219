package srp

import (
	"fmt"
	"io"

	"github.com/fzdarsky/tipi/pkg/bignum"
)

// Server is the verifier-holding side of one exchange.
type Server struct {
	group    *Group
	mont     *bignum.Montgomery
	verifier *bignum.Int
	rand     io.Reader
	state    State

	b, B *bignum.Int
	A    *bignum.Int
	S    *bignum.Int
	m1   *bignum.Int
	key  []byte
}

// NewServer creates a server for a user whose stored verifier is v.
func NewServer(group *Group, verifier *bignum.Int, opts ...Option) *Server {
	o := buildOptions(opts)
	return &Server{
		group:    group,
		mont:     bignum.NewMontgomery(group.N),
		verifier: verifier,
		rand:     o.rand,
	}
}

// NewServerWithEphemeral creates a server with a fixed private ephemeral b.
func NewServerWithEphemeral(group *Group, verifier, b *bignum.Int) *Server {
	s := NewServer(group, verifier)
	s.b = b
	return s
}

// State returns the current protocol state.
func (s *Server) State() State { return s.state }

// ComputeB draws b (unless fixed) and returns B = (k*v + g^b) mod N.
func (s *Server) ComputeB() (*bignum.Int, error) {
	if err := s.state.expect(Created, "ComputeB"); err != nil {
		return nil, err
	}

	N := s.group.N
	kv := bignum.ModMul(s.group.K, s.verifier, N)
	public := func(b *bignum.Int) *bignum.Int {
		return bignum.ModAdd(kv, s.mont.Exp(s.group.G, b), N)
	}
	if s.b != nil {
		s.B = public(s.b)
	} else {
		b, B, err := drawEphemeral(s.rand, public, N)
		if err != nil {
			return nil, err
		}
		s.b, s.B = b, B
	}

	s.state = AwaitingPeerPublic
	return s.B, nil
}

// SetClientPublic records A and derives S = (A * v^u)^b mod N.
//
//nolint:gocritic // A is SRP notation
func (s *Server) SetClientPublic(A *bignum.Int) error {
	if err := s.state.expect(AwaitingPeerPublic, "SetClientPublic"); err != nil {
		return err
	}
	N := s.group.N
	if bignum.Mod(A, N).IsZero() {
		s.fail()
		return fmt.Errorf("%w: A mod N == 0", ErrInvalidPublic)
	}
	s.A = A

	u := ComputeU(A, s.B)
	avu := bignum.ModMul(A, s.mont.Exp(s.verifier, u), N)
	s.S = s.mont.Exp(avu, s.b)

	s.m1 = computeM1(A, s.B, s.S)
	s.key = sessionKey(s.S)
	s.state = AwaitingVerification
	return nil
}

// CheckM1 verifies the client proof in constant time and, only if it
// matches, returns the server proof M2.
//
//nolint:gocritic // M1 is SRP notation
func (s *Server) CheckM1(M1 *bignum.Int) (*bignum.Int, error) {
	if err := s.state.expect(AwaitingVerification, "CheckM1"); err != nil {
		return nil, err
	}
	if !proofsEqual(M1, s.m1) {
		s.fail()
		return nil, fmt.Errorf("%w: client proof mismatch", ErrVerification)
	}
	s.state = Verified
	return computeM2(s.A, s.m1, s.S), nil
}

// SessionKey returns K once the client proof has been verified.
func (s *Server) SessionKey() ([]byte, error) {
	if err := s.state.expect(Verified, "SessionKey"); err != nil {
		return nil, err
	}
	out := make([]byte, len(s.key))
	copy(out, s.key)
	return out, nil
}

func (s *Server) fail() {
	s.state = Failed
	s.b, s.S = nil, nil
	clear(s.key)
	s.key = nil
}
