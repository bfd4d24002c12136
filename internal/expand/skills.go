package expand

import (
	"strings"

	"github.com/jonathan/data-jobs-etl/internal/types"
)

// ParseSkills parses a bracketed list of quoted items such as
// ['python', 'sql'] or ["c++"]. Items may use either quote character and a
// backslash escapes the next rune. NULL and [] both yield a single NULL
// element so every posting still produces at least one fact row.
func ParseSkills(value string) ([]string, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == types.NullValue {
		return []string{types.NullValue}, nil
	}
	if !strings.HasPrefix(value, "[") || !strings.HasSuffix(value, "]") {
		return nil, malformed(SkillsColumn, value, "missing brackets")
	}

	body := []rune(value[1 : len(value)-1])
	var (
		items []string
		item  strings.Builder
		i     = 0
	)

	skipSpace := func() {
		for i < len(body) && (body[i] == ' ' || body[i] == '\t') {
			i++
		}
	}

	skipSpace()
	if i == len(body) {
		return []string{types.NullValue}, nil
	}

	for {
		skipSpace()
		if i == len(body) {
			return nil, malformed(SkillsColumn, value, "trailing separator")
		}
		quote := body[i]
		if quote != '\'' && quote != '"' {
			return nil, malformed(SkillsColumn, value, "unquoted item")
		}
		i++

		item.Reset()
		closed := false
		for i < len(body) {
			r := body[i]
			i++
			if r == '\\' && i < len(body) {
				item.WriteRune(body[i])
				i++
				continue
			}
			if r == quote {
				closed = true
				break
			}
			item.WriteRune(r)
		}
		if !closed {
			return nil, malformed(SkillsColumn, value, "unterminated quote")
		}

		s := strings.TrimSpace(item.String())
		if s == "" {
			return nil, malformed(SkillsColumn, value, "empty item")
		}
		items = append(items, s)

		skipSpace()
		if i == len(body) {
			return items, nil
		}
		if body[i] != ',' {
			return nil, malformed(SkillsColumn, value, "missing separator")
		}
		i++
	}
}
