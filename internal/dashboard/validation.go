package dashboard

import (
	"fmt"
	"regexp"
	"strings"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// required returns a prompt naming the first blank field. Pairs are label, value.
func required(pairs ...string) string {
	for i := 0; i+1 < len(pairs); i += 2 {
		if blank(pairs[i+1]) {
			return fmt.Sprintf("%s is required", pairs[i])
		}
	}
	return ""
}

// clockSeconds parses HH:mm or HH:mm:ss. ok is false for anything else.
func clockSeconds(v string) (int, bool) {
	var h, m, s int
	switch len(v) {
	case len("15:04"):
		if _, err := fmt.Sscanf(v, "%02d:%02d", &h, &m); err != nil {
			return 0, false
		}
	case len("15:04:05"):
		if _, err := fmt.Sscanf(v, "%02d:%02d:%02d", &h, &m, &s); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if h > 23 || m > 59 || s > 59 || h < 0 || m < 0 || s < 0 {
		return 0, false
	}
	return h*3600 + m*60 + s, true
}
