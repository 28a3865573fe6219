package fakeidentity

import (
	"errors"
	"sync"

	"github.com/fzdarsky/tipi/pkg/bignum"
	"github.com/fzdarsky/tipi/pkg/srp"
)

var (
	errUnknownUser   = errors.New("unknown user")
	errPartialUser   = errors.New("partial user needs the clear password")
	errPartialFailed = errors.New("clear password rejected")
)

// account is one registered identity. A partial account has no verifier
// yet; it is completed by the first login that carries the clear password.
type account struct {
	salt     *bignum.Int
	verifier *bignum.Int
	partial  bool
	password string
}

// directory maps usernames to accounts.
type directory struct {
	group *srp.Group
	mu    sync.Mutex
	users map[string]*account
}

func newDirectory(group *srp.Group) *directory {
	return &directory{group: group, users: make(map[string]*account)}
}

func (d *directory) add(username, password string) error {
	salt, err := srp.NewSalt(nil)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[username] = &account{
		salt:     salt,
		verifier: srp.ComputeVerifier(d.group, salt, username, password),
	}
	return nil
}

func (d *directory) addPartial(username, password string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[username] = &account{partial: true, password: password}
}

// credentials returns the salt and verifier for username, completing a
// partial account when clear matches its password.
func (d *directory) credentials(username, clear string) (salt, verifier *bignum.Int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	acct, ok := d.users[username]
	if !ok {
		return nil, nil, errUnknownUser
	}
	if acct.partial {
		if clear == "" {
			return nil, nil, errPartialUser
		}
		if clear != acct.password {
			return nil, nil, errPartialFailed
		}
		salt, err := srp.NewSalt(nil)
		if err != nil {
			return nil, nil, err
		}
		acct.salt = salt
		acct.verifier = srp.ComputeVerifier(d.group, salt, username, clear)
		acct.partial = false
		acct.password = ""
	}
	return acct.salt, acct.verifier, nil
}
