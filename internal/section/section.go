// Package section addresses heading-delimited parts of a wiki document for
// partial edits.
package section

import (
	"strings"
)

// separator two blank lines between spliced parts
const separator = "\n\n\n"

// Parts result of Split. Target starts with the matched heading line and runs
// until the next heading of any level; After starts with that heading.
type Parts struct {
	Before string
	Target string
	After  string
	Found  bool
}

// Heading a heading line found in a document
type Heading struct {
	Level int
	Label string
	Line  int
}

// ParseHeading reports whether line is a heading: one or more '#' followed by
// a non-empty label. A closing run of '#' is not part of the label.
func ParseHeading(line string) (level int, label string, ok bool) {
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 {
		return 0, "", false
	}
	label = strings.TrimSpace(line[level:])
	if i := strings.LastIndex(label, " #"); i >= 0 && strings.Trim(label[i+1:], "#") == "" {
		label = strings.TrimSpace(label[:i])
	}
	if label == "" || strings.Trim(label, "#") == "" {
		return 0, "", false
	}
	return level, label, true
}

func isFence(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "```") || strings.HasPrefix(t, "~~~")
}

// Headings lists the heading lines of text outside code fences
func Headings(text string) []Heading {
	var out []Heading
	inFence := false
	for i, line := range strings.Split(text, "\n") {
		if isFence(line) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if level, label, ok := ParseHeading(strings.TrimRight(line, " \t\r")); ok {
			out = append(out, Heading{Level: level, Label: label, Line: i})
		}
	}
	return out
}

// Split cuts text around the first heading labelled name. Without a match
// Before holds the whole text and Target is empty.
func Split(text, name string) Parts {
	name = strings.TrimSpace(name)
	headings := Headings(text)

	start := -1
	end := -1
	for i, h := range headings {
		if start < 0 {
			if h.Label == name {
				start = h.Line
			}
			continue
		}
		end = headings[i].Line
		break
	}
	if start < 0 || name == "" {
		return Parts{Before: text}
	}

	lines := strings.Split(text, "\n")
	if end < 0 {
		end = len(lines)
	}
	return Parts{
		Before: strings.Join(lines[:start], "\n"),
		Target: strings.Join(lines[start:end], "\n"),
		After:  strings.Join(lines[end:], "\n"),
		Found:  true,
	}
}

// Splice rebuilds a document: before, then the trimmed target on the next
// line, then two blank lines and after. The result is normalized.
// Split drops exactly one line break in front of the target, so splicing the
// parts of Split back unchanged yields NormalizeSpacing of the original text
// whenever the section ends at a heading of level 2 or deeper, or at the end
// of the text.
func Splice(before, target, after string) string {
	var b strings.Builder
	b.WriteString(before)

	if t := strings.TrimSpace(target); t != "" {
		if strings.TrimSpace(before) != "" {
			b.WriteString("\n")
		}
		b.WriteString(t)
	}
	if a := strings.TrimSpace(after); a != "" {
		b.WriteString(separator)
		b.WriteString(a)
	}
	return NormalizeSpacing(b.String())
}

// NormalizeSpacing puts exactly two blank lines before every heading of level
// 2 or deeper, strips trailing whitespace from lines and trims the document.
// Level-1 headings and fenced code are left as they are.
func NormalizeSpacing(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines)+8)
	inFence := false

	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if isFence(line) {
			inFence = !inFence
			out = append(out, line)
			continue
		}
		if !inFence {
			if level, _, ok := ParseHeading(line); ok && level >= 2 {
				for len(out) > 0 && out[len(out)-1] == "" {
					out = out[:len(out)-1]
				}
				if len(out) > 0 {
					out = append(out, "", "")
				}
			}
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
