package protocol

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidToken is returned by ParseToken for a malformed header value.
var ErrInvalidToken = errors.New("invalid authorization token")

// Token is the content of a TIPI-TOKEN Authorization header. SessID is the
// plain session id; on the wire it travels as EncodeSessionID(SessID).
type Token struct {
	SessID string
	Sign   string
}

// String formats the header value.
func (t Token) String() string {
	return fmt.Sprintf(`%s sessid="%s", sign="%s"`,
		AuthScheme, EncodeSessionID(t.SessID), t.Sign)
}

// EncodeSessionID renders a session id for a sessid parameter. The id is
// read as hex, two digits per byte, with a trailing odd digit forming a
// byte of its own, and the bytes are base64-encoded. A pair without a
// leading hex digit reads as zero.
func EncodeSessionID(id string) string {
	out := make([]byte, 0, (len(id)+1)/2)
	for i := 0; i < len(id); i += 2 {
		out = append(out, hexPrefix(id[i:min(i+2, len(id))]))
	}
	return base64.StdEncoding.EncodeToString(out)
}

// hexPrefix reads the leading hex digits of s.
func hexPrefix(s string) byte {
	var v byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case '0' <= c && c <= '9':
			v = v<<4 | (c - '0')
		case 'a' <= c && c <= 'f':
			v = v<<4 | (c - 'a' + 10)
		case 'A' <= c && c <= 'F':
			v = v<<4 | (c - 'A' + 10)
		default:
			return v
		}
	}
	return v
}

// ParseToken parses an Authorization header value. The session id comes
// back as lowercase hex of the decoded bytes, which is the original id for
// any even-length lowercase hex id.
func ParseToken(header string) (Token, error) {
	rest, ok := strings.CutPrefix(header, AuthScheme+" ")
	if !ok {
		return Token{}, fmt.Errorf("%w: missing %s scheme", ErrInvalidToken, AuthScheme)
	}

	params := make(map[string]string, 2)
	for part := range strings.SplitSeq(rest, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || len(v) < 2 || v[0] != '"' || v[len(v)-1] != '"' {
			return Token{}, fmt.Errorf("%w: bad parameter %q", ErrInvalidToken, part)
		}
		params[k] = v[1 : len(v)-1]
	}

	sessid, err := base64.StdEncoding.DecodeString(params["sessid"])
	if err != nil || len(sessid) == 0 {
		return Token{}, fmt.Errorf("%w: bad sessid", ErrInvalidToken)
	}
	if params["sign"] == "" {
		return Token{}, fmt.Errorf("%w: missing sign", ErrInvalidToken)
	}
	return Token{SessID: hex.EncodeToString(sessid), Sign: params["sign"]}, nil
}
