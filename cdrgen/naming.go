package cdrgen

import (
	"strings"
	"unicode"
)

// goKeywords are reserved words that cannot be used as Go
// identifiers; an IDL name colliding with one gets an underscore
// suffix.
var goKeywords = map[string]bool{
	"break": true, "default": true, "func": true, "interface": true, "select": true,
	"case": true, "defer": true, "go": true, "map": true, "struct": true,
	"chan": true, "else": true, "goto": true, "package": true, "switch": true,
	"const": true, "fallthrough": true, "if": true, "range": true, "type": true,
	"continue": true, "for": true, "import": true, "return": true, "var": true,
}

// identifier lowercases the first rune of an IDL name and escapes Go
// keywords, for use as a local variable or unexported helper name.
// Matches the teacher generator's identifier() helper, minus the
// DBus-specific "fd"/"id" acronym casing (CDR field names have no
// equivalent convention).
func identifier(s string) string {
	if s == "" {
		return s
	}
	fst := true
	s = strings.Map(func(r rune) rune {
		if fst {
			fst = false
			return unicode.ToLower(r)
		}
		return r
	}, s)
	if goKeywords[s] {
		s += "_"
	}
	return s
}

// PublicIdentifier title-cases an IDL name for use as an exported Go
// identifier (a generated struct or function name).
func PublicIdentifier(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// PropsVar is the name of the generated package-level variable
// holding a type's compiled property tree.
func PropsVar(typeName string) string {
	return identifier(typeName) + "Props"
}

// StreamOpFunc is the name of the generated stream_op function for a
// type: e.g. StreamSensorReading.
func StreamOpFunc(typeName string) string {
	return "Stream" + PublicIdentifier(typeName)
}
