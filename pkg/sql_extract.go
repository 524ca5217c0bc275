package pkg

import (
	"regexp"
	"strings"
)

// sqlStatementPattern matches a SELECT ... FROM ... ; block anywhere in the model output,
// across line breaks and regardless of case.
var sqlStatementPattern = regexp.MustCompile(`(?is)(SELECT\s.+\sFROM\s.+;)`)

// ExtractSQL pulls the statement out of a free-text model response.
// The second return value is false when nothing statement-shaped was found.
func ExtractSQL(text string) (string, bool) {
	match := sqlStatementPattern.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	return strings.TrimSpace(match[1]), true
}
