// Package render substitutes recipient data into template channel details.
package render

import (
	"regexp"

	"github.com/lalithlochan/courier/internal/model"
)

var placeholder = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

// Rendered is the subject/content pair produced for one channel.
type Rendered struct {
	Subject string
	Content string
}

// Render fills {{key}} placeholders in detail from ctx. A key missing from
// ctx leaves its placeholder untouched.
func Render(detail model.ChannelDetail, ctx model.RecipientContext) Rendered {
	return Rendered{
		Subject: Text(detail.Subject, ctx),
		Content: Text(detail.Body, ctx),
	}
}

// Text applies the substitution rule to a single string.
func Text(s string, ctx model.RecipientContext) string {
	if s == "" {
		return ""
	}
	return placeholder.ReplaceAllStringFunc(s, func(token string) string {
		key := placeholder.FindStringSubmatch(token)[1]
		if v, ok := ctx[key]; ok {
			return v
		}
		return token
	})
}

// Placeholders lists the distinct keys referenced by s, in first-seen order.
func Placeholders(s string) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, m := range placeholder.FindAllStringSubmatch(s, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			keys = append(keys, m[1])
		}
	}
	return keys
}
