package section

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = "# Guide\n\nIntro text.\n\n## Install\nRun the installer.\n\n### Linux\nUse the package.\n\n## Usage\nCall it.\n"

func TestParseHeading(t *testing.T) {
	tests := []struct {
		line  string
		level int
		label string
		ok    bool
	}{
		{"# Title", 1, "Title", true},
		{"###   Deep  ", 3, "Deep", true},
		{"## Closed ##", 2, "Closed", true},
		{"#tag", 1, "tag", true},
		{"#", 0, "", false},
		{"###", 0, "", false},
		{"##   ", 0, "", false},
		{"plain", 0, "", false},
		{" # indented", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			level, label, ok := ParseHeading(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.level, level)
			assert.Equal(t, tt.label, label)
		})
	}
}

func TestSplit(t *testing.T) {
	parts := Split(sampleDoc, "Install")

	require.True(t, parts.Found)
	assert.Equal(t, "# Guide\n\nIntro text.\n", parts.Before)
	assert.Equal(t, "## Install\nRun the installer.\n", parts.Target)
	assert.Equal(t, "### Linux\nUse the package.\n\n## Usage\nCall it.\n", parts.After)
}

func TestSplit_LastSectionRunsToEnd(t *testing.T) {
	parts := Split(sampleDoc, "Usage")

	require.True(t, parts.Found)
	assert.Equal(t, "## Usage\nCall it.\n", parts.Target)
	assert.Empty(t, parts.After)
}

func TestSplit_MissingSection(t *testing.T) {
	parts := Split(sampleDoc, "NoSuchHeading")

	assert.False(t, parts.Found)
	assert.Empty(t, parts.Target)
	assert.Empty(t, parts.After)
	assert.Equal(t, sampleDoc, parts.Before)
}

func TestSplit_IgnoresHeadingsInsideFences(t *testing.T) {
	doc := "## Code\n```\n## Fake\n```\n\n## Real\ntext"

	parts := Split(doc, "Fake")
	assert.False(t, parts.Found)

	parts = Split(doc, "Code")
	require.True(t, parts.Found)
	assert.Equal(t, "## Code\n```\n## Fake\n```\n", parts.Target)
	assert.Equal(t, "## Real\ntext", parts.After)
}

func TestSplitSplice_RoundTrip(t *testing.T) {
	docs := []string{
		sampleDoc,
		"Preamble\n## A\none\n## B\ntwo\n\n\n\n\n## C\nthree   \n",
		"## Only\nbody",
		"lead\n\n## Target\n\n```\n## not a heading\n```\n\n#### Next\nend\n\n",
		"intro\n# A\nbody\n## B\nx",
		"title: Guide\n---\n# Guide\ntext\n",
		"## A\none\n# B\ntwo",
	}
	names := []string{"Install", "B", "Only", "Target", "A", "Guide", "B"}

	for i, doc := range docs {
		p := Split(doc, names[i])
		require.True(t, p.Found, names[i])
		assert.Equal(t, NormalizeSpacing(doc), Splice(p.Before, p.Target, p.After), names[i])
	}
}

func TestSplice_ReplacesTarget(t *testing.T) {
	p := Split(sampleDoc, "Install")

	got := Splice(p.Before, "## Install\n\nUse the script instead.\n\n\n", p.After)
	expected := "# Guide\n\nIntro text.\n\n\n## Install\n\nUse the script instead.\n\n\n### Linux\nUse the package.\n\n\n## Usage\nCall it."
	assert.Equal(t, expected, got)
}

func TestSplice_LevelOneTargetKeepsLineBreak(t *testing.T) {
	p := Split("intro\n# A\nbody\n## B\nx", "A")

	assert.Equal(t, "intro\n# A\nbody\n\n\n## B\nx", Splice(p.Before, p.Target, p.After))
	assert.Equal(t, "intro\n# A\n\nnew\n\n\n## B\nx", Splice(p.Before, "# A\n\nnew\n\n", p.After))
}

func TestSplice_AppendsMissingSection(t *testing.T) {
	p := Split("# Page\nbody\n", "FAQ")
	require.False(t, p.Found)

	assert.Equal(t, "# Page\nbody\n\n\n## FAQ\nq", Splice(p.Before, "## FAQ\nq", p.After))
}

func TestSplice_EmptyTargetRemovesSection(t *testing.T) {
	p := Split(sampleDoc, "Usage")

	got := Splice(p.Before, "   ", p.After)
	assert.Equal(t, "# Guide\n\nIntro text.\n\n\n## Install\nRun the installer.\n\n\n### Linux\nUse the package.", got)
}

func TestNormalizeSpacing(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"pads", "text\n## H\nbody", "text\n\n\n## H\nbody"},
		{"collapses", "text\n\n\n\n\n### H", "text\n\n\n### H"},
		{"level one untouched", "intro\n# Top\nbody", "intro\n# Top\nbody"},
		{"leading heading", "\n\n## First\nx", "## First\nx"},
		{"trailing whitespace", "a  \n\n## H  \n\n\n", "a\n\n\n## H"},
		{"hard break spaces dropped", "line one  \nline two", "line one\nline two"},
		{"backslash break kept", "line one\\\nline two", "line one\\\nline two"},
		{"fence untouched", "```\ncode\n## inside\n```", "```\ncode\n## inside\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeSpacing(tt.input))
		})
	}
}

func TestNormalizeSpacing_Idempotent(t *testing.T) {
	once := NormalizeSpacing(sampleDoc)
	assert.Equal(t, once, NormalizeSpacing(once))
}
