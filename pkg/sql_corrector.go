package pkg

import (
	"strings"

	"intelliquery/internal/api/models"
)

// NameCorrector rewrites table and column names a language model made up into the
// names the schema actually uses.
type NameCorrector struct {
	profile  models.SchemaProfile
	strategy models.CorrectionStrategy

	tables  map[string]struct{}
	columns map[string]string
}

func NewNameCorrector(profile models.SchemaProfile, strategy models.CorrectionStrategy) *NameCorrector {
	corrector := &NameCorrector{
		profile:  profile,
		strategy: strategy,
		tables:   make(map[string]struct{}, len(profile.TableAliases)),
		columns:  make(map[string]string, len(profile.ColumnAliases)),
	}
	for _, alias := range profile.TableAliases {
		corrector.tables[strings.ToLower(alias)] = struct{}{}
	}
	for _, alias := range profile.ColumnAliases {
		key := strings.ToLower(alias.From)
		// first rule wins, as with the substring strategy
		if _, exists := corrector.columns[key]; !exists {
			corrector.columns[key] = alias.To
		}
	}
	return corrector
}

func (slf *NameCorrector) Correct(sql string) string {
	if slf.strategy == models.CorrectionSubstring {
		return slf.correctSubstrings(sql)
	}
	return slf.correctTokens(sql)
}

// correctSubstrings applies table aliases first, then column aliases, each one on the whole
// text and in profile order. Aliases embedded in longer identifiers get replaced too.
func (slf *NameCorrector) correctSubstrings(sql string) string {
	for _, alias := range slf.profile.TableAliases {
		sql = strings.ReplaceAll(sql, alias, slf.profile.View)
	}
	for _, alias := range slf.profile.ColumnAliases {
		sql = strings.ReplaceAll(sql, alias.From, alias.To)
	}
	return sql
}

// correctTokens only touches complete identifiers outside of string literals.
// A token matching a table alias is never looked up as a column alias.
func (slf *NameCorrector) correctTokens(sql string) string {
	var out strings.Builder
	out.Grow(len(sql))

	for i := 0; i < len(sql); {
		c := sql[i]
		switch {
		case c == '\'':
			end := skipStringLiteral(sql, i)
			out.WriteString(sql[i:end])
			i = end
		case isIdentStart(c):
			end := i + 1
			for end < len(sql) && isIdentPart(sql[end]) {
				end++
			}
			out.WriteString(slf.replaceIdentifier(sql[i:end]))
			i = end
		case isDigit(c):
			// numbers such as 1e5 must not be read as identifiers
			end := i + 1
			for end < len(sql) && isIdentPart(sql[end]) {
				end++
			}
			out.WriteString(sql[i:end])
			i = end
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}

func (slf *NameCorrector) replaceIdentifier(ident string) string {
	key := strings.ToLower(ident)
	if _, ok := slf.tables[key]; ok {
		return slf.profile.View
	}
	if canonical, ok := slf.columns[key]; ok {
		return canonical
	}
	return ident
}

// skipStringLiteral returns the index right after the literal opened at start.
// Doubled quotes inside the literal are escapes. An unterminated literal runs to the end.
func skipStringLiteral(sql string, start int) int {
	for i := start + 1; i < len(sql); i++ {
		if sql[i] != '\'' {
			continue
		}
		if i+1 < len(sql) && sql[i+1] == '\'' {
			i++
			continue
		}
		return i + 1
	}
	return len(sql)
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '@' || c == '#' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '$'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
