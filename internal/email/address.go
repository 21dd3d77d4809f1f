package email

import (
	"net/mail"
	"strings"
)

// ParseAddress returns the bare address of a recipient ("Name <a@b>" or
// "a@b"). It reports false for anything net/mail rejects or that lacks a
// local part or domain.
func ParseAddress(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", false
	}
	at := strings.LastIndex(addr.Address, "@")
	if at <= 0 || at == len(addr.Address)-1 {
		return "", false
	}
	return addr.Address, true
}

// ValidAddress reports whether raw is a syntactically valid address
func ValidAddress(raw string) bool {
	_, ok := ParseAddress(raw)
	return ok
}

// Domain extracts the lower-cased domain of an address, or ""
func Domain(raw string) string {
	addr, ok := ParseAddress(raw)
	if !ok {
		return ""
	}
	return strings.ToLower(addr[strings.LastIndex(addr, "@")+1:])
}
