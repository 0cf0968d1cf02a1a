package util

import (
	"go/token"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Words splits an identifier into its words. Separators are any non letter or
// digit rune ("get_ticket", "plugin:scan|x"), lower to upper transitions
// ("documentID") and the end of an acronym ("HTTPServer" -> HTTP, Server).
func Words(s string) []string {
	var (
		words []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(cur) > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

// WireCase rewrites a name into the lower camel case convention used for
// argument record fields on the wire. The result depends only on the input.
func WireCase(s string) string {
	words := Words(s)
	if len(words) == 0 {
		return ""
	}
	title := cases.Title(language.Und)
	var b strings.Builder
	b.WriteString(strings.ToLower(words[0]))
	for _, w := range words[1:] {
		b.WriteString(title.String(strings.ToLower(w)))
	}
	return b.String()
}

// ExportedName derives an exported Go identifier from a wire identifier.
// "get_serialized_ticket" -> "GetSerializedTicket".
func ExportedName(s string) string {
	words := Words(s)
	if len(words) == 0 {
		return ""
	}
	title := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, w := range words {
		b.WriteString(title.String(w))
	}
	out := b.String()
	// Digits and letters without case (CJK, for instance) cannot start an
	// exported identifier.
	if !token.IsExported(out) {
		out = "X" + out
	}
	return out
}

// UnexportedName derives an unexported Go identifier from s. Keywords get a
// trailing underscore.
func UnexportedName(s string) string {
	out := WireCase(s)
	if out == "" {
		return ""
	}
	if unicode.IsDigit([]rune(out)[0]) {
		out = "x" + out
	}
	if token.IsKeyword(out) {
		out += "_"
	}
	return out
}

// IsIdentifier reports whether s is a valid, non-blank Go identifier.
func IsIdentifier(s string) bool {
	return s != "_" && token.IsIdentifier(s)
}
