// Package email provides the normalization helpers the reconciliation
// pipeline relies on. Candidate matching is exact, case-insensitive equality
// over normalized addresses, so every address crosses through here before it
// is compared or stored.
package email

import (
	"strings"
	"unicode"
)

// Normalize lower-cases and trims an address. An empty result means the
// input carried no usable address.
func Normalize(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// NormalizeSet normalizes, deduplicates, and drops empty addresses.
// Order is preserved so the first usable address keeps priority.
//
// Example:
//
//	NormalizeSet("  Jane@X.org ", "jane@x.org", "", "jd@x.org")
//	// Returns: []string{"jane@x.org", "jd@x.org"}
func NormalizeSet(addrs ...string) []string {
	if len(addrs) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(addrs))
	result := make([]string, 0, len(addrs))

	for _, a := range addrs {
		normalized := Normalize(a)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; !ok {
			seen[normalized] = struct{}{}
			result = append(result, normalized)
		}
	}

	return result
}

// DeriveDisplayName builds a best-effort person name from the local part of
// an address. Used only by the manual force-create path when a submission
// carries no mapped name and a human has chosen to create the record anyway.
func DeriveDisplayName(addr string) string {
	localPart := addr
	if at := strings.IndexByte(addr, '@'); at >= 0 {
		localPart = addr[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})

	if len(parts) == 0 {
		return "Candidate"
	}

	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
