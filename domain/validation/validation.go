// Package validation collects per-field request violations and renders them
// the way the HTTP API reports them.
package validation

import (
	"fmt"
	"net/mail"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/example/task-api/domain/apperror"
)

// MaxStringLength bounds every string column.
const MaxStringLength = 255

// Errors accumulates messages per field, keeping the order fields failed in.
type Errors struct {
	order  []string
	fields map[string][]string
}

// New returns an empty Errors.
func New() *Errors {
	return &Errors{fields: make(map[string][]string)}
}

// Add records a message for field.
func (e *Errors) Add(field, message string) {
	if _, ok := e.fields[field]; !ok {
		e.order = append(e.order, field)
	}
	e.fields[field] = append(e.fields[field], message)
}

// Has reports whether field already failed a rule.
func (e *Errors) Has(field string) bool {
	_, ok := e.fields[field]
	return ok
}

// Empty reports whether no rule failed.
func (e *Errors) Empty() bool {
	return len(e.order) == 0
}

// Fields returns a copy of the collected messages.
func (e *Errors) Fields() map[string][]string {
	out := make(map[string][]string, len(e.fields))
	for k, v := range e.fields {
		out[k] = slices.Clone(v)
	}
	return out
}

// Summary returns the first message, followed by a count of the rest.
func (e *Errors) Summary() string {
	if e.Empty() {
		return ""
	}
	total := 0
	for _, msgs := range e.fields {
		total += len(msgs)
	}
	first := e.fields[e.order[0]][0]
	switch rest := total - 1; rest {
	case 0:
		return first
	case 1:
		return first + " (and 1 more error)"
	default:
		return fmt.Sprintf("%s (and %d more errors)", first, rest)
	}
}

// Err returns nil when nothing failed, otherwise a validation failure.
func (e *Errors) Err() error {
	if e.Empty() {
		return nil
	}
	return &apperror.Error{
		Kind:    apperror.KindValidation,
		Message: e.Summary(),
		Fields:  e.Fields(),
	}
}

// Attribute turns a request key into its display form: "userId" becomes "user id".
func Attribute(field string) string {
	var b strings.Builder
	for i, r := range field {
		switch {
		case r == '_':
			b.WriteRune(' ')
		case unicode.IsUpper(r):
			if i > 0 {
				b.WriteRune(' ')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Required fails for absent, null and blank fields.
func (e *Errors) Required(name string, f Field) bool {
	if !f.Filled() {
		e.Add(name, fmt.Sprintf("The %s field is required.", Attribute(name)))
		return false
	}
	return true
}

// IsString fails unless the field was supplied as a JSON string.
// Null is accepted; nullable fields rely on it.
func (e *Errors) IsString(name string, f Field) bool {
	if f.Present && !f.Null && (f.Numeric || f.Malformed) {
		e.Add(name, fmt.Sprintf("The %s field must be a string.", Attribute(name)))
		return false
	}
	return true
}

// MaxLength fails when the trimmed value is longer than limit characters.
func (e *Errors) MaxLength(name string, f Field, limit int) bool {
	if len([]rune(f.Text())) > limit {
		e.Add(name, fmt.Sprintf("The %s field must not be greater than %d characters.", Attribute(name), limit))
		return false
	}
	return true
}

// Email fails unless the value is a bare RFC 5322 address.
func (e *Errors) Email(name string, f Field) bool {
	if !IsEmail(f.Text()) {
		e.Add(name, fmt.Sprintf("The %s field must be a valid email address.", Attribute(name)))
		return false
	}
	return true
}

// OneOf fails unless the value is one of allowed.
func (e *Errors) OneOf(name string, f Field, allowed ...string) bool {
	if !slices.Contains(allowed, f.Text()) {
		e.Invalid(name)
		return false
	}
	return true
}

// ID parses a positive integer reference supplied as a number or numeric string.
func (e *Errors) ID(name string, f Field) (uint, bool) {
	id, ok := ParseID(f.Text())
	if !ok || f.Malformed {
		e.Invalid(name)
		return 0, false
	}
	return id, true
}

// Invalid records that the selected value does not exist or is not allowed.
func (e *Errors) Invalid(name string) {
	e.Add(name, fmt.Sprintf("The selected %s is invalid.", Attribute(name)))
}

// Taken records a uniqueness violation.
func (e *Errors) Taken(name string) {
	e.Add(name, fmt.Sprintf("The %s has already been taken.", Attribute(name)))
}

// IsEmail reports whether s is a bare address such as "a@b.c".
func IsEmail(s string) bool {
	if s == "" || strings.ContainsAny(s, " <>") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s && addr.Name == ""
}

// ParseID parses a positive decimal id.
func ParseID(s string) (uint, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
