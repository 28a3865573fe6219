package fakeidentity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fzdarsky/tipi/pkg/otp"
	"github.com/fzdarsky/tipi/pkg/protocol"
)

func signedToken(key []byte, id string) string {
	return protocol.Token{SessID: id, Sign: otp.New(key).Current().Sign(id)}.String()
}

func TestSessionManager_OddLengthIDs(t *testing.T) {
	m := newSessionManager(time.Hour, time.Now)
	m.nextID = 9999
	key := []byte("0123456789abcdef")

	id := m.create("alice", key)
	require.Equal(t, int64(10000), id)

	header := signedToken(key, "10000")
	assert.Contains(t, header, `sessid="EAAA"`)

	username, sessID, err := m.authenticate(header)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
	assert.Equal(t, "10000", sessID)

	m.remove(sessID)
	assert.Equal(t, 0, m.count())
	_, _, err = m.authenticate(header)
	assert.ErrorIs(t, err, errSessionNotFound)
}

func TestSessionManager_RejectsWrongSignature(t *testing.T) {
	m := newSessionManager(time.Hour, time.Now)
	id := m.create("alice", []byte("right key"))

	_, _, err := m.authenticate(signedToken([]byte("wrong key"), "1001"))
	assert.Equal(t, int64(1001), id)
	assert.ErrorIs(t, err, errBadSignature)
}
