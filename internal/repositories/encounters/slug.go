package encounters

import (
	"regexp"
	"strings"
)

var (
	slugPattern    = regexp.MustCompile(`[^a-z0-9-]+`)
	slugHyphenRuns = regexp.MustCompile(`-+`)
)

// generateSlug creates a URL-safe slug from a display name.
func generateSlug(s string) string {
	slug := strings.ToLower(s)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = slugPattern.ReplaceAllString(slug, "-")
	slug = slugHyphenRuns.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if slug == "" {
		slug = "encounter"
	}

	return slug
}
