package model

import (
	"fmt"
	"regexp"
	"strings"
)

// NamePlaceholder is substituted with the user-supplied name when a rule is
// compiled into a matcher.
const NamePlaceholder = "${name}"

// VerificationRule pairs an externally authored match template with an
// optional expected script. Immutable once loaded for a session.
type VerificationRule struct {
	// Pattern is a regular expression template that may contain ${name}.
	Pattern string
	// Flags follow the Javascript convention: any of "ims". Empty means "ims".
	Flags string
	// ExpectedScript, when set, requires the screenshot's detected script
	// (e.g. "Latin") to match before the text match counts.
	ExpectedScript string
}

// Compile substitutes name into the pattern's placeholder and builds the
// matcher. Unknown flag letters are dropped rather than rejected because the
// rules are authored by guild admins used to Javascript regexes.
func (r VerificationRule) Compile(name string) (*regexp.Regexp, error) {
	flags := r.Flags
	if flags == "" {
		flags = "ims"
	}
	var kept strings.Builder
	for _, c := range flags {
		switch c {
		case 'i', 'm', 's':
			kept.WriteRune(c)
		}
	}
	expr := strings.ReplaceAll(r.Pattern, NamePlaceholder, regexp.QuoteMeta(name))
	if kept.Len() > 0 {
		expr = "(?" + kept.String() + ")" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile verification rule: %w", err)
	}
	return re, nil
}
