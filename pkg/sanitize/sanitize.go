// Package sanitize strips active content from captured message markup.
package sanitize

import (
	"regexp"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// languageClass keeps syntax-highlighting hints on code blocks.
var languageClass = regexp.MustCompile(`^(?:(?:language|lang)-[\w+#.-]+\s*)+$`)

func messagePolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("class").Matching(languageClass).OnElements("code", "pre")
		p.AllowAttrs("datetime").OnElements("time")
		policy = p
	})
	return policy
}

// HTML removes scripts, event handlers, styles and other active content while
// keeping the semantic markup of a message. It is idempotent.
func HTML(fragment string) string {
	return messagePolicy().Sanitize(fragment)
}
