package mapping

import (
	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titleCaser capitalizes the first letter of an identifier without
// lowering the rest ("firstName" -> "FirstName"). Replacement for the
// deprecated strings.Title.
var titleCaser = cases.Title(language.Und, cases.NoLower)

// snake returns the snake_case form of a Go identifier. Mapped
// property names and entity labels default to this form.
func snake(s string) string {
	return inflect.Underscore(s)
}

// pascal returns the exported (PascalCase) form of a name. Used to
// derive accessor method names from field names.
func pascal(s string) string {
	if s == "" {
		return s
	}
	if snaked := snake(s); snaked != s {
		// Already mixed-case; only ensure the first rune is upper.
		return titleCaser.String(s)
	}
	return inflect.Camelize(s)
}
