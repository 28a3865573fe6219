// Package session keeps an authenticated session with the Identity Service.
//
// A Session logs in with SRP, persists the resulting session key, keeps the
// session alive with periodic pings and signs outgoing requests with
// TIPI-TOKEN headers derived from time-based codes.
//
//go:generate go tool mockgen -destination=mock_identity.go -package=session github.com/fzdarsky/tipi/pkg/session IdentityService
package session
