package srp

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned when a step is called out of order.
	ErrInvalidState = errors.New("invalid SRP state")
	// ErrInvalidPublic is returned when a peer's public ephemeral is 0 mod N.
	ErrInvalidPublic = errors.New("invalid public ephemeral")
	// ErrVerification is returned when a proof does not match.
	ErrVerification = errors.New("SRP verification failed")
)

// State is the position of a party in the exchange. Transitions only move
// forward and Failed is terminal.
type State int

const (
	Created State = iota
	AwaitingPeerPublic
	AwaitingVerification
	Verified
	Failed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case AwaitingPeerPublic:
		return "awaiting_peer_public"
	case AwaitingVerification:
		return "awaiting_verification"
	case Verified:
		return "verified"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// expect checks that the party is in state want before running op.
func (s State) expect(want State, op string) error {
	if s != want {
		return fmt.Errorf("%w: %s called in state %s", ErrInvalidState, op, s)
	}
	return nil
}
