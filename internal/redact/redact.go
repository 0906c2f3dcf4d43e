// Package redact scrubs personally identifiable fields from rendered log
// lines. A Redactor replaces the value of each configured field=value pair
// with a fixed placeholder, and a slog.Handler wrapper applies the redactor
// to every fully formatted record before it is written.
package redact

import (
	"regexp"
	"strings"
)

// Redactor replaces sensitive field values in delimited log messages.
// It is stateless after construction and safe for concurrent use.
type Redactor struct {
	placeholder string
	separator   string
	re          *regexp.Regexp
}

// New builds a Redactor for the given field names, placeholder, and
// field separator. Field names and the separator are matched literally.
// With no fields, Redact is a no-op.
func New(fields []string, placeholder, separator string) *Redactor {
	r := &Redactor{
		placeholder: placeholder,
		separator:   separator,
	}
	if len(fields) == 0 {
		return r
	}

	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = regexp.QuoteMeta(f)
	}

	// Matches field=value<sep> with a non-greedy value, so each match stops
	// at the first separator after the field name. Re-applying to already
	// redacted output is a no-op in effect: the placeholder simply matches
	// as the value and is replaced with itself.
	r.re = regexp.MustCompile(`(` + strings.Join(quoted, "|") + `)=.+?` + regexp.QuoteMeta(separator))
	return r
}

// Redact returns message with every configured field's value replaced by
// the placeholder, preserving the "field=" prefix and the separator.
// Fields not present are left untouched. Matching is left-to-right; each
// occurrence of a field is redacted independently.
func (r *Redactor) Redact(message string) string {
	if r.re == nil {
		return message
	}
	return r.re.ReplaceAllStringFunc(message, func(m string) string {
		name := m[:strings.Index(m, "=")]
		return name + "=" + r.placeholder + r.separator
	})
}
