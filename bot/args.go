package bot

import (
	"strings"

	"github.com/glazed-darnut/VerifyBot/model"
)

// ParseArgs extracts the quoted arguments of a command message. The content
// is split on double quotes, so `verify "My Guild" "Member" "Jane Doe"`
// yields ["My Guild", "Member", "Jane Doe"]. Unquoted text other than the
// command word itself is a syntax error.
func ParseArgs(content, command string) ([]string, error) {
	parts := strings.Split(content, "\"")
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 || !strings.EqualFold(kept[0], command) {
		return nil, model.InvalidSyntaxErr
	}
	return kept[1:], nil
}
