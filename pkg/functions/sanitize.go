package functions

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	stripPolicyOnce sync.Once
	stripPolicy     *bluemonday.Policy

	markupPolicyOnce sync.Once
	markupPolicy     *bluemonday.Policy
)

// stripHTML removes every tag and leaves decoded text.
func stripHTML(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	stripPolicyOnce.Do(func() {
		stripPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(trimmed)))
}

// sanitizeHTML keeps basic formatting markup and drops scripts, styles and
// event handlers.
func sanitizeHTML(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	markupPolicyOnce.Do(func() {
		policy := bluemonday.NewPolicy()
		policy.AllowElements("b", "i", "em", "strong", "u", "p", "br", "ul", "ol", "li", "span", "small", "code")
		policy.AllowAttrs("href").OnElements("a")
		policy.AllowStandardURLs()
		policy.RequireNoFollowOnLinks(true)
		markupPolicy = policy
	})
	return strings.TrimSpace(markupPolicy.Sanitize(trimmed))
}
