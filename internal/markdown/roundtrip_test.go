package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Canonical-form documents must survive a full markdown -> ADF -> markdown
// cycle byte for byte. Anything else would make a pull/push pair rewrite
// tickets nobody touched.
func TestRoundTripCanonicalDocuments(t *testing.T) {
	docs := []string{
		"Hello world",
		"# Title\n\nSome **bold** text",
		"## Section\n\nA *quiet* line with `code`",
		"- one\n- two",
		"1. first\n2. second",
		"- parent\n  - child",
		"- [ ] Buy milk\n- [x] Ship it",
		"> quoted",
		"> [!NOTE]\n> Something to know",
		"> [!CAUTION]\n> Danger zone",
		"> `[decision:d]` Approved the plan",
		"> `[decision:a]` Postponed until June",
		"| A |\n|-|",
		"| Name | Value |\n|-|-|\n| timeout | 30s |",
		"```python\nprint(1)\n```",
		"---",
		"due `[date]2024-04-03` sharp",
		"ping [@Bob](https://example.atlassian.net/jira/people/abc123) please",
		"[docs](https://example.com/doc)",
		"~~removed~~ text",
	}
	for _, doc := range docs {
		t.Run(doc, func(t *testing.T) {
			parsed, warnings := ParseWithWarnings(doc)
			assert.Empty(t, warnings)
			assert.Equal(t, doc, Render(parsed, "https://example.atlassian.net"))
		})
	}
}

func TestRoundTripTableFollowedByParagraph(t *testing.T) {
	input := "| A |\n|-|\n\nFollow-up details go here"
	parsed, _ := ParseWithWarnings(input)
	assert.Equal(t, input, Render(parsed, ""))
}

func TestRoundTripEscapedPipe(t *testing.T) {
	input := "| Sample field \\| Sample value |\n|-|"
	parsed, _ := ParseWithWarnings(input)
	assert.Equal(t, input, Render(parsed, ""))
}

// A second pull/push cycle must not grow extra backslashes: the parser
// recovers the literal pipe and the renderer re-escapes it, once.
func TestRoundTripEscapedPipeIsStable(t *testing.T) {
	input := "| Sample field \\| Sample value |\n|-|"
	for i := 0; i < 3; i++ {
		parsed, _ := ParseWithWarnings(input)
		out := Render(parsed, "")
		assert.Equal(t, input, out)
		input = out
	}
}
