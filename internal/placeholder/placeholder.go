// Package placeholder converts printf-style tokens between the iOS and Android dialects.
package placeholder

import (
	"regexp"
	"strings"
)

// token matches %%, or % with an optional n$ position, an optional l/ll length
// modifier and a conversion letter or @.
var token = regexp.MustCompile(`%(?:%|(\d+\$)?(ll|l)?([A-Za-z@]))`)

// Normalize rewrites iOS tokens into the canonical printf form:
// %@ and %n$@ become %s and %n$s, %ld and %lld become %d, %lu becomes %u.
func Normalize(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	return token.ReplaceAllStringFunc(s, func(m string) string {
		if m == "%%" {
			return m
		}
		sub := token.FindStringSubmatch(m)
		pos, mod, conv := sub[1], sub[2], sub[3]
		switch conv {
		case "@":
			return "%" + pos + "s"
		case "d", "u", "i":
			return "%" + pos + conv
		}
		return "%" + pos + mod + conv
	})
}

// ToIOS turns %s and %n$s into %@ and %n$@.
func ToIOS(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	return token.ReplaceAllStringFunc(s, func(m string) string {
		sub := token.FindStringSubmatch(m)
		if m == "%%" || sub[2] != "" || sub[3] != "s" {
			return m
		}
		return "%" + sub[1] + "@"
	})
}

// Signature lists the normalized tokens of s in order, e.g. ["1$s", "d"].
// Escaped percent signs are ignored.
func Signature(s string) []string {
	var out []string
	for _, sub := range token.FindAllStringSubmatch(Normalize(s), -1) {
		if sub[0] == "%%" {
			continue
		}
		out = append(out, sub[1]+strings.ToLower(sub[3]))
	}
	return out
}

// SameSignature reports whether a and b use the same placeholders in the same order.
func SameSignature(a, b string) bool {
	sa, sb := Signature(a), Signature(b)
	if len(sa) != len(sb) {
		return false
	}
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}
