package types

import (
	"strconv"
	"strings"
)

// placeholderPrefix marks parser-local identifiers. Store-assigned UUIDs
// never start with it.
const placeholderPrefix = "$"

// Placeholders allocates parser-local identifiers. The zero value is ready to
// use; ids are unique per allocator only.
type Placeholders struct {
	fields, templates, items int
}

// Field returns the next custom field placeholder ("$f1", "$f2", ...).
func (p *Placeholders) Field() string {
	p.fields++
	return placeholderPrefix + "f" + strconv.Itoa(p.fields)
}

// Template returns the next template placeholder.
func (p *Placeholders) Template() string {
	p.templates++
	return placeholderPrefix + "t" + strconv.Itoa(p.templates)
}

// Item returns the next item placeholder.
func (p *Placeholders) Item() string {
	p.items++
	return placeholderPrefix + "i" + strconv.Itoa(p.items)
}

// IsPlaceholder reports whether id was produced by a Placeholders allocator.
func IsPlaceholder(id string) bool {
	return strings.HasPrefix(id, placeholderPrefix)
}
