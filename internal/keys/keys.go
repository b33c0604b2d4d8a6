// Package keys derives the identity under which failed authentication
// submissions are aggregated.
//
// # Strategies
//
//   - [ByAddress]: the client address alone.
//   - [ByAddressAndUsername]: the client address combined with the attempted
//     username, used when a username parameter is configured and present.
//
// A running engine uses exactly one strategy at a time; the two kinds never
// compare equal even when their fields coincide.
//
// # What this package must NOT do
//
//   - Consult or mutate the failure tracker.
//   - Normalize usernames beyond trimming (case folding is a login-form concern).
package keys

import "strings"

// Kind identifies which strategy produced a [Key].
type Kind uint8

const (
	// KindAddress keys on the client address alone.
	KindAddress Kind = iota + 1
	// KindAddressUsername keys on the client address plus attempted username.
	KindAddressUsername
)

func (k Kind) String() string {
	switch k {
	case KindAddress:
		return "address"
	case KindAddressUsername:
		return "address_username"
	default:
		return "unknown"
	}
}

// Key is a comparable throttling identity. It is safe to use as a map key.
type Key struct {
	Kind     Kind
	Address  string
	Username string
}

// ByAddress builds an address-only key.
func ByAddress(ip string) Key {
	return Key{Kind: KindAddress, Address: ip}
}

// ByAddressAndUsername builds an address+username key.
func ByAddressAndUsername(ip, username string) Key {
	return Key{Kind: KindAddressUsername, Address: ip, Username: username}
}

// Derive selects the key for a submission. The username only participates
// when usernameEnabled is set and the submitted username is not blank.
func Derive(ip, username string, usernameEnabled bool) Key {
	ip = strings.TrimSpace(ip)
	username = strings.TrimSpace(username)

	if usernameEnabled && username != "" {
		return ByAddressAndUsername(ip, username)
	}
	return ByAddress(ip)
}

// String renders the key as "ip" or "ip;username".
func (k Key) String() string {
	if k.Kind == KindAddressUsername {
		return k.Address + ";" + k.Username
	}
	return k.Address
}
