package pipeline

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

var imageLine = regexp.MustCompile(`(?i)^[ \t]*\[\[image:[^\]]+\]\][ \t]*$`)

func isFenceLine(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "```") || strings.HasPrefix(t, "~~~")
}

// OutsideCode applies fn to every run of lines outside fenced code blocks.
// Content filters use it to leave code samples untouched.
func OutsideCode(text string, fn func(string) string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	var chunk []string
	inFence := false

	flush := func() {
		if len(chunk) == 0 {
			return
		}
		out = append(out, fn(strings.Join(chunk, "\n")))
		chunk = chunk[:0]
	}

	for _, line := range lines {
		if isFenceLine(line) {
			if !inFence {
				flush()
			}
			inFence = !inFence
			out = append(out, line)
			continue
		}
		if inFence {
			out = append(out, line)
			continue
		}
		chunk = append(chunk, line)
	}
	flush()
	return strings.Join(out, "\n")
}

// OutsideInlineCode is OutsideCode that also leaves backtick code spans alone.
// An opening run of backticks without a closing run of the same length is
// plain text.
func OutsideInlineCode(text string, fn func(string) string) string {
	return OutsideCode(text, func(chunk string) string {
		return outsideSpans(chunk, fn)
	})
}

func outsideSpans(text string, fn func(string) string) string {
	var b strings.Builder
	plain := 0
	for i := 0; i < len(text); {
		if text[i] != '`' {
			i++
			continue
		}
		n := backtickRun(text[i:])
		end := closingRun(text, i+n, n)
		if end < 0 {
			i += n
			continue
		}
		b.WriteString(fn(text[plain:i]))
		b.WriteString(text[i:end])
		plain, i = end, end
	}
	b.WriteString(fn(text[plain:]))
	return b.String()
}

func backtickRun(s string) int {
	n := 0
	for n < len(s) && s[n] == '`' {
		n++
	}
	return n
}

// closingRun returns the index just past the first run of exactly n
// backticks at or after from, or -1.
func closingRun(s string, from, n int) int {
	for i := from; i < len(s); {
		if s[i] != '`' {
			i++
			continue
		}
		m := backtickRun(s[i:])
		if m == n {
			return i + m
		}
		i += m
	}
	return -1
}

// groupGalleries wraps two or more consecutive image-embed lines in a
// gallery block.
func groupGalleries(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))

	for i := 0; i < len(lines); {
		j := i
		for j < len(lines) && imageLine.MatchString(lines[j]) {
			j++
		}
		if j-i >= 2 {
			out = append(out, "", `<div class="gallery">`)
			for _, l := range lines[i:j] {
				out = append(out, strings.TrimSpace(l))
			}
			out = append(out, "</div>", "")
			i = j
			continue
		}
		if j == i {
			j++
		}
		out = append(out, lines[i:j]...)
		i = j
	}
	return strings.Join(out, "\n")
}

// MapPoint a located point of a map block
type MapPoint struct {
	Lat   float64           `json:"lat"`
	Lon   float64           `json:"lon"`
	Props map[string]string `json:"props,omitempty"`
}

// MapData payload of a map block placeholder
type MapData struct {
	Options map[string]string `json:"options,omitempty"`
	Points  []MapPoint        `json:"points"`
}

var mapLine = regexp.MustCompile(`^[ \t]*(-[ \t]*)?([A-Za-z_][A-Za-z0-9_-]*)[ \t]*:[ \t]*(.*)$`)

// ParseMapBlock reads the key: value format of a map block. "- ll: lat,lon"
// starts a point; points without a valid coordinate pair are dropped. Keys
// before the first point are map options.
func ParseMapBlock(body string) MapData {
	data := MapData{Points: []MapPoint{}}
	var current *MapPoint
	valid := false

	closePoint := func() {
		if current != nil && valid {
			data.Points = append(data.Points, *current)
		}
		current, valid = nil, false
	}

	for _, line := range strings.Split(body, "\n") {
		m := mapLine.FindStringSubmatch(strings.TrimRight(line, " \t\r"))
		if m == nil {
			continue
		}
		dash, key, value := m[1] != "", m[2], strings.TrimSpace(m[3])

		if dash && key == "ll" {
			closePoint()
			current = &MapPoint{}
			current.Lat, current.Lon, valid = parseLatLon(value)
			continue
		}
		if current == nil {
			if data.Options == nil {
				data.Options = map[string]string{}
			}
			data.Options[key] = value
			continue
		}
		if current.Props == nil {
			current.Props = map[string]string{}
		}
		current.Props[key] = value
	}
	closePoint()
	return data
}

func parseLatLon(v string) (float64, float64, bool) {
	parts := strings.Split(v, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// replaceMapBlocks turns ```map fences into a data-carrying placeholder.
// An unterminated map fence is left as code.
func replaceMapBlocks(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))

	for i := 0; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "```map" {
			out = append(out, lines[i])
			continue
		}
		end := -1
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == "```" {
				end = j
				break
			}
		}
		if end < 0 {
			out = append(out, lines[i:]...)
			break
		}

		payload, err := json.Marshal(ParseMapBlock(strings.Join(lines[i+1:end], "\n")))
		if err != nil {
			out = append(out, lines[i:end+1]...)
		} else {
			out = append(out, "", `<div class="wiki-map" data-map="`+html.EscapeString(string(payload))+`"></div>`, "")
		}
		i = end
	}
	return strings.Join(out, "\n")
}
