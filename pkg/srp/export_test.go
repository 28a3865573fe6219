package srp

import "github.com/fzdarsky/tipi/pkg/bignum"

// Accessors for known-answer tests.

func (c *Client) PremasterSecret() *bignum.Int { return c.S }
func (c *Client) Scrambler() *bignum.Int       { return c.u }
func (c *Client) PrivateKey() *bignum.Int      { return c.x }
func (s *Server) PremasterSecret() *bignum.Int { return s.S }
