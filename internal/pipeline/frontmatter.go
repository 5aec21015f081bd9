package pipeline

import (
	"regexp"
	"strings"

	"github.com/damoang/angple-wiki/internal/domain"
)

// frontMatterDelimiter ends the property block
const frontMatterDelimiter = "---"

var propertyLine = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_.-]*)[ \t]*:[ \t]*(.*)$`)

// booleanProperties keys coerced from 0/1 to bool
var booleanProperties = map[string]bool{
	domain.FieldPublished: true,
	domain.FieldDeleted:   true,
}

// Properties document metadata taken from front-matter
type Properties map[string]interface{}

// Bool returns a boolean property and whether it was set
func (p Properties) Bool(name string) (bool, bool) {
	v, ok := p[name]
	if !ok {
		return false, false
	}
	return domain.ToBool(v), true
}

// ParseFrontMatter splits leading "key: value" lines terminated by a "---"
// line off text. The block is all-or-nothing: a line that is neither a
// property nor the delimiter, or a missing delimiter, means no properties
// and the whole text is the body.
func ParseFrontMatter(text string) (Properties, string) {
	props := Properties{}
	rest := text

	for {
		line, next, more := cutLine(rest)
		line = strings.TrimRight(line, " \t\r")

		if line == frontMatterDelimiter {
			if len(props) == 0 {
				return nil, text
			}
			return props, next
		}

		m := propertyLine.FindStringSubmatch(line)
		if m == nil {
			return nil, text
		}
		key, value := m[1], strings.TrimSpace(m[2])
		if booleanProperties[key] {
			props[key] = domain.ToBool(value)
		} else {
			props[key] = value
		}

		if !more {
			return nil, text
		}
		rest = next
	}
}

func cutLine(s string) (line, rest string, more bool) {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i], s[i+1:], true
	}
	return s, "", false
}
