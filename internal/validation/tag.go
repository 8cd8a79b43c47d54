package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var tagRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,29}$`)

// NormalizeTag lowercases and trims a tag name for storage.
func NormalizeTag(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ValidateTag checks a normalized tag name: 1-30 chars, lowercase
// alphanumerics and hyphens, starting with an alphanumeric.
func ValidateTag(name string) error {
	if name == "" {
		return fmt.Errorf("tag cannot be empty")
	}
	if !tagRegex.MatchString(name) {
		return fmt.Errorf("tag %q must be 1-30 lowercase letters, digits or hyphens and start with a letter or digit", name)
	}
	return nil
}
