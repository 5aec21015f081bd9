package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrontMatter(t *testing.T) {
	props, body := ParseFrontMatter("title: Guide\npublished: 0\ndeleted: 1\ntags: a, b\n---\n# Body\n\ntext")

	require.NotNil(t, props)
	assert.Equal(t, "Guide", props["title"])
	assert.Equal(t, false, props["published"])
	assert.Equal(t, true, props["deleted"])
	assert.Equal(t, "a, b", props["tags"])
	assert.Equal(t, "# Body\n\ntext", body)

	published, ok := props.Bool("published")
	assert.True(t, ok)
	assert.False(t, published)
	_, ok = props.Bool("missing")
	assert.False(t, ok)
}

func TestParseFrontMatter_AllOrNothing(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"broken line before delimiter", "a: 1\nbad-line\n---\nbody"},
		{"no delimiter", "a: 1\nb: 2"},
		{"plain text", "# Just a page\n\nbody"},
		{"delimiter without properties", "---\nbody"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props, body := ParseFrontMatter(tt.input)
			assert.Empty(t, props)
			assert.Equal(t, tt.input, body)
		})
	}
}

func TestParseFrontMatter_CRLFAndEmptyValue(t *testing.T) {
	props, body := ParseFrontMatter("title:\r\nsummary: short\r\n---\r\nbody")

	require.NotNil(t, props)
	assert.Equal(t, "", props["title"])
	assert.Equal(t, "short", props["summary"])
	assert.Equal(t, "body", body)
}
