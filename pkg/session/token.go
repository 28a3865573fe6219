package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/fzdarsky/tipi/pkg/protocol"
)

// Token returns the Authorization header value for the current time step,
// or ErrNotActive when the session is not valid.
func (s *Session) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.checkValidLocked() {
		return "", ErrNotActive
	}
	return s.tokenLocked(), nil
}

func (s *Session) tokenLocked() string {
	code := s.gen.Current()
	return protocol.Token{SessID: s.sessID, Sign: code.Sign(s.sessID)}.String()
}

// Authorize sets the Authorization and Accept-Version headers on req.
func (s *Session) Authorize(req *http.Request) error {
	token, err := s.Token()
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Accept-Version", protocol.APIVersion)
	return nil
}

// StaticToken signs a link target with the session key. The signature
// covers subject up to its query string, so it stays valid for any query.
func (s *Session) StaticToken(subject string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.checkValidLocked() {
		return "", ErrNotActive
	}
	return s.staticTokenLocked(subject), nil
}

func (s *Session) staticTokenLocked(subject string) string {
	mac := hmac.New(sha256.New, []byte(hex.EncodeToString(s.key)))
	mac.Write([]byte(encodeURI(tokenSubject(subject))))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// AuthorizeURL appends sessid and token query parameters to rawURL.
func (s *Session) AuthorizeURL(rawURL string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.checkValidLocked() {
		return "", ErrNotActive
	}

	q := url.Values{}
	q.Set("sessid", protocol.EncodeSessionID(s.sessID))
	q.Set("token", s.staticTokenLocked(rawURL))

	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + q.Encode(), nil
}

// tokenSubject cuts subject at its query: everything from the last "/?"
// or, failing that, the last "?" is dropped.
func tokenSubject(subject string) string {
	if i := strings.LastIndex(subject, "/?"); i > 0 {
		subject = subject[:i+2]
	} else if i := strings.LastIndex(subject, "?"); i > 0 {
		subject = subject[:i+1]
	}

	q := strings.IndexByte(subject, '?')
	switch {
	case q < 0:
		return subject
	case q > 0 && subject[q-1] == '/':
		return subject[:q-1] + subject[q+1:]
	default:
		return subject[:q] + subject[q+1:]
	}
}

// encodeURI percent-encodes s like ECMAScript's encodeURI, which leaves
// URI delimiters intact.
func encodeURI(s string) string {
	const keep = "-_.!~*'();/?:@&=+$,#"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' || strings.IndexByte(keep, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}
