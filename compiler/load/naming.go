package load

import (
	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titleCaser capitalizes the first letter of an identifier without
// lowering the rest.
var titleCaser = cases.Title(language.Und, cases.NoLower)

// Snake returns the snake_case form of a Go identifier. It must agree
// with the runtime default for mapped property names.
func Snake(s string) string {
	return inflect.Underscore(s)
}

// Pascal returns the exported (PascalCase) form of a name, used to
// derive accessor method names from field names.
func Pascal(s string) string {
	if s == "" {
		return s
	}
	if snaked := Snake(s); snaked != s {
		return titleCaser.String(s)
	}
	return inflect.Camelize(s)
}
