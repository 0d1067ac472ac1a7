package registry

import (
	"regexp"
	"strings"
)

// Recognized source identifier shapes:
//
//	@channelname
//	https://t.me/channelname        (optional trailing /123 post path)
//	t.me/channelname
//	tg://resolve?domain=channelname
//	123456789                       (bare numeric peer id)
//
// Everything else (facebook URLs and the like in a shared registry) is
// rejected at fetch time.
var (
	handleRe  = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{3,31}$`)
	numericRe = regexp.MustCompile(`^-?\d+$`)
)

// NormalizeIdentity reduces a raw registry identifier to its canonical
// form: "@name" for handles and URL shapes, the bare digits for numeric
// ids. Reports false for unrecognizable input.
func NormalizeIdentity(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	if numericRe.MatchString(s) {
		return s, true
	}

	if name, ok := strings.CutPrefix(s, "@"); ok {
		return canonicalHandle(name)
	}

	lower := strings.ToLower(s)
	for _, prefix := range []string{"https://t.me/", "http://t.me/", "t.me/"} {
		if rest, ok := strings.CutPrefix(lower, prefix); ok {
			return canonicalHandle(firstPathSegment(rest))
		}
	}

	if rest, ok := strings.CutPrefix(lower, "tg://resolve?domain="); ok {
		return canonicalHandle(firstPathSegment(rest))
	}

	return "", false
}

func canonicalHandle(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if !handleRe.MatchString(name) {
		return "", false
	}
	return "@" + strings.ToLower(name), true
}

func firstPathSegment(s string) string {
	if i := strings.IndexAny(s, "/?&#"); i >= 0 {
		return s[:i]
	}
	return s
}
