package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dt-pm-tools/jiramd/internal/jira"
)

const testBaseURL = "https://example.atlassian.net"

func doc(content ...jira.ADFNode) *jira.ADFNode {
	return &jira.ADFNode{Type: jira.NodeDoc, Version: 1, Content: content}
}

func para(content ...jira.ADFNode) jira.ADFNode {
	return jira.ADFNode{Type: jira.NodeParagraph, Content: content}
}

func txt(s string, marks ...jira.ADFMark) jira.ADFNode {
	return jira.ADFNode{Type: jira.NodeText, Text: s, Marks: marks}
}

func TestRenderParagraphAndHeading(t *testing.T) {
	got := Render(doc(
		jira.ADFNode{
			Type:    jira.NodeHeading,
			Attrs:   map[string]any{"level": float64(2)},
			Content: []jira.ADFNode{txt("Overview")},
		},
		para(txt("Plain text here")),
	), testBaseURL)

	assert.Equal(t, "## Overview\n\nPlain text here", got)
}

func TestRenderMarkOrder(t *testing.T) {
	tests := []struct {
		name  string
		marks []jira.ADFMark
		want  string
	}{
		{"strong", []jira.ADFMark{{Type: jira.MarkStrong}}, "**x**"},
		{"em", []jira.ADFMark{{Type: jira.MarkEm}}, "*x*"},
		{"strike", []jira.ADFMark{{Type: jira.MarkStrike}}, "~~x~~"},
		{"code", []jira.ADFMark{{Type: jira.MarkCode}}, "`x`"},
		{"strong wraps em", []jira.ADFMark{{Type: jira.MarkEm}, {Type: jira.MarkStrong}}, "***x***"},
		{"strong wraps code", []jira.ADFMark{{Type: jira.MarkCode}, {Type: jira.MarkStrong}}, "**`x`**"},
		{"strong wraps strike", []jira.ADFMark{{Type: jira.MarkStrike}, {Type: jira.MarkStrong}}, "**~~x~~**"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(doc(para(txt("x", tt.marks...))), testBaseURL)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderLinkMark(t *testing.T) {
	link := jira.ADFMark{Type: jira.MarkLink, Attrs: map[string]any{"href": "https://example.com/doc"}}
	got := Render(doc(para(txt("docs", link))), testBaseURL)
	assert.Equal(t, "[docs](https://example.com/doc)", got)
}

func TestRenderMentionNode(t *testing.T) {
	mention := jira.ADFNode{
		Type:  jira.NodeMention,
		Attrs: map[string]any{"id": "abc123", "text": "@Bob"},
	}
	got := Render(doc(para(mention)), testBaseURL)
	assert.Equal(t, "[@Bob](https://example.atlassian.net/jira/people/abc123)", got)
}

func TestRenderMentionWithoutBaseURL(t *testing.T) {
	mention := jira.ADFNode{
		Type:  jira.NodeMention,
		Attrs: map[string]any{"id": "abc123", "text": "@Bob"},
	}
	got := Render(doc(para(mention)), "")
	assert.Equal(t, "@Bob", got)
}

func TestRenderMentionShapedLinkMark(t *testing.T) {
	link := jira.ADFMark{
		Type:  jira.MarkLink,
		Attrs: map[string]any{"href": "https://other.example.net/jira/people/xyz789"},
	}
	got := Render(doc(para(txt("@Carol", link))), testBaseURL)
	assert.Equal(t, "[@Carol](https://example.atlassian.net/jira/people/xyz789)", got)
}

func TestRenderSingleCellTable(t *testing.T) {
	table := jira.ADFNode{Type: jira.NodeTable, Content: []jira.ADFNode{
		{Type: jira.NodeTableRow, Content: []jira.ADFNode{
			{Type: jira.NodeTableHeader, Content: []jira.ADFNode{para(txt("A"))}},
		}},
	}}
	got := Render(doc(table), testBaseURL)
	assert.Equal(t, "| A |\n|-|", got)
}

func TestRenderTableEscapesPipes(t *testing.T) {
	table := jira.ADFNode{Type: jira.NodeTable, Content: []jira.ADFNode{
		{Type: jira.NodeTableRow, Content: []jira.ADFNode{
			{Type: jira.NodeTableHeader, Content: []jira.ADFNode{para(txt("Sample field | Sample value"))}},
		}},
	}}
	got := Render(doc(table), testBaseURL)
	assert.Equal(t, "| Sample field \\| Sample value |\n|-|", got)
}

func TestRenderTableTermination(t *testing.T) {
	table := jira.ADFNode{Type: jira.NodeTable, Content: []jira.ADFNode{
		{Type: jira.NodeTableRow, Content: []jira.ADFNode{
			{Type: jira.NodeTableHeader, Content: []jira.ADFNode{para(txt("A"))}},
		}},
	}}
	got := Render(doc(table, para(txt("Follow-up details go here"))), testBaseURL)
	assert.Equal(t, "| A |\n|-|\n\nFollow-up details go here", got)
}

func TestRenderTwoRowTable(t *testing.T) {
	row := func(cellType jira.NodeType, cells ...string) jira.ADFNode {
		r := jira.ADFNode{Type: jira.NodeTableRow}
		for _, c := range cells {
			r.Content = append(r.Content, jira.ADFNode{Type: cellType, Content: []jira.ADFNode{para(txt(c))}})
		}
		return r
	}
	table := jira.ADFNode{Type: jira.NodeTable, Content: []jira.ADFNode{
		row(jira.NodeTableHeader, "Name", "Value"),
		row(jira.NodeTableCell, "timeout", "30s"),
	}}
	got := Render(doc(table), testBaseURL)
	assert.Equal(t, "| Name | Value |\n|-|-|\n| timeout | 30s |", got)
}

func TestRenderLists(t *testing.T) {
	item := func(s string) jira.ADFNode {
		return jira.ADFNode{Type: jira.NodeListItem, Content: []jira.ADFNode{para(txt(s))}}
	}

	t.Run("bullet", func(t *testing.T) {
		list := jira.ADFNode{Type: jira.NodeBulletList, Content: []jira.ADFNode{item("one"), item("two")}}
		assert.Equal(t, "- one\n- two", Render(doc(list), testBaseURL))
	})

	t.Run("ordered", func(t *testing.T) {
		list := jira.ADFNode{Type: jira.NodeOrderedList, Content: []jira.ADFNode{item("first"), item("second")}}
		assert.Equal(t, "1. first\n2. second", Render(doc(list), testBaseURL))
	})

	t.Run("nested", func(t *testing.T) {
		inner := jira.ADFNode{Type: jira.NodeBulletList, Content: []jira.ADFNode{item("child")}}
		outer := jira.ADFNode{Type: jira.NodeBulletList, Content: []jira.ADFNode{
			{Type: jira.NodeListItem, Content: []jira.ADFNode{para(txt("parent")), inner}},
		}}
		assert.Equal(t, "- parent\n  - child", Render(doc(outer), testBaseURL))
	})
}

func TestRenderTaskList(t *testing.T) {
	list := jira.ADFNode{Type: jira.NodeTaskList, Content: []jira.ADFNode{
		{Type: jira.NodeTaskItem, Attrs: map[string]any{"state": "TODO"}, Content: []jira.ADFNode{txt("Buy milk")}},
		{Type: jira.NodeTaskItem, Attrs: map[string]any{"state": "DONE"}, Content: []jira.ADFNode{txt("Ship it")}},
	}}
	assert.Equal(t, "- [ ] Buy milk\n- [x] Ship it", Render(doc(list), testBaseURL))
}

func TestRenderCodeBlock(t *testing.T) {
	code := jira.ADFNode{
		Type:    jira.NodeCodeBlock,
		Attrs:   map[string]any{"language": "go"},
		Content: []jira.ADFNode{txt("fmt.Println(\"hi\")")},
	}
	assert.Equal(t, "```go\nfmt.Println(\"hi\")\n```", Render(doc(code), testBaseURL))
}

func TestRenderBlockquote(t *testing.T) {
	quote := jira.ADFNode{Type: jira.NodeBlockquote, Content: []jira.ADFNode{para(txt("quoted"))}}
	assert.Equal(t, "> quoted", Render(doc(quote), testBaseURL))
}

func TestRenderPanel(t *testing.T) {
	tests := []struct {
		panelType string
		tag       string
	}{
		{"info", "NOTE"},
		{"success", "TIP"},
		{"note", "IMPORTANT"},
		{"warning", "WARNING"},
		{"error", "CAUTION"},
	}
	for _, tt := range tests {
		t.Run(tt.panelType, func(t *testing.T) {
			panel := jira.ADFNode{
				Type:    jira.NodePanel,
				Attrs:   map[string]any{"panelType": tt.panelType},
				Content: []jira.ADFNode{para(txt("Heads up"))},
			}
			got := Render(doc(panel), testBaseURL)
			assert.Equal(t, "> [!"+tt.tag+"]\n> Heads up", got)
		})
	}
}

func TestRenderPanelFoldsLabelParagraph(t *testing.T) {
	// The shape the parser produces: label paragraph then content.
	panel := jira.ADFNode{
		Type:  jira.NodePanel,
		Attrs: map[string]any{"panelType": "warning"},
		Content: []jira.ADFNode{
			para(txt("Warning", jira.ADFMark{Type: jira.MarkStrong})),
			para(txt("Disk usage is high")),
		},
	}
	got := Render(doc(panel), testBaseURL)
	assert.Equal(t, "> [!WARNING]\n> Disk usage is high", got)
}

func TestRenderDecisionBlockquoteFoldsLabel(t *testing.T) {
	quote := jira.ADFNode{Type: jira.NodeBlockquote, Content: []jira.ADFNode{
		para(txt("DECIDED", jira.ADFMark{Type: jira.MarkStrong})),
		para(txt("Approved the plan")),
	}}
	got := Render(doc(quote), testBaseURL)
	assert.Equal(t, "> `[decision:d]` Approved the plan", got)
}

func TestRenderDecisionList(t *testing.T) {
	list := jira.ADFNode{Type: jira.NodeDecisionList, Content: []jira.ADFNode{
		{
			Type:    jira.NodeDecisionItem,
			Attrs:   map[string]any{"state": "DECIDED"},
			Content: []jira.ADFNode{txt("Ship v2")},
		},
	}}
	got := Render(doc(list), testBaseURL)
	assert.Equal(t, "> `[decision:d]` Ship v2", got)
}

func TestRenderInlineNodes(t *testing.T) {
	t.Run("hard break", func(t *testing.T) {
		got := Render(doc(para(txt("a"), jira.ADFNode{Type: jira.NodeHardBreak}, txt("b"))), testBaseURL)
		assert.Equal(t, "a\\\nb", got)
	})

	t.Run("date", func(t *testing.T) {
		date := jira.ADFNode{Type: jira.NodeDate, Attrs: map[string]any{"timestamp": "1712102400000"}}
		assert.Equal(t, "`[date]2024-04-03`", Render(doc(para(date)), testBaseURL))
	})

	t.Run("date missing timestamp", func(t *testing.T) {
		date := jira.ADFNode{Type: jira.NodeDate, Attrs: map[string]any{}}
		assert.Equal(t, "`[date][no date]`", Render(doc(para(date)), testBaseURL))
	})

	t.Run("status", func(t *testing.T) {
		status := jira.ADFNode{Type: jira.NodeStatus, Attrs: map[string]any{"text": "In Progress", "color": "blue"}}
		assert.Equal(t, "`[status:b]In Progress`", Render(doc(para(status)), testBaseURL))
	})

	t.Run("status with unknown color", func(t *testing.T) {
		status := jira.ADFNode{Type: jira.NodeStatus, Attrs: map[string]any{"text": "Odd", "color": "magenta"}}
		assert.Equal(t, "`[status:n]Odd`", Render(doc(para(status)), testBaseURL))
	})

	t.Run("emoji prefers rendered text", func(t *testing.T) {
		emoji := jira.ADFNode{Type: jira.NodeEmoji, Attrs: map[string]any{"shortName": ":smile:", "text": "😄"}}
		assert.Equal(t, "😄", Render(doc(para(emoji)), testBaseURL))
	})

	t.Run("inline card", func(t *testing.T) {
		card := jira.ADFNode{Type: jira.NodeInlineCard, Attrs: map[string]any{"url": "https://example.com/page"}}
		assert.Equal(t, "[link](https://example.com/page)", Render(doc(para(card)), testBaseURL))
	})
}

func TestRenderRule(t *testing.T) {
	assert.Equal(t, "---", Render(doc(jira.ADFNode{Type: jira.NodeRule}), testBaseURL))
}

func TestRenderMediaSingle(t *testing.T) {
	media := jira.ADFNode{Type: jira.NodeMediaSingle, Content: []jira.ADFNode{
		{Type: jira.NodeMedia, Attrs: map[string]any{"alt": "diagram.png"}},
	}}
	got := Render(doc(media), testBaseURL)
	assert.Equal(t, `*(See file "diagram.png" in attachments tab)*`, got)
}

func TestRenderUnknownNodeSalvagesChildren(t *testing.T) {
	unknown := jira.ADFNode{Type: "expand", Content: []jira.ADFNode{para(txt("inner detail"))}}
	assert.Equal(t, "inner detail", Render(doc(unknown), testBaseURL))
}

func TestRenderNilAndEmpty(t *testing.T) {
	assert.Equal(t, "", Render(nil, testBaseURL))
	assert.Equal(t, "", Render(doc(), testBaseURL))
}

func TestRenderTableFlattensMultiBlockCell(t *testing.T) {
	cell := jira.ADFNode{Type: jira.NodeTableCell, Content: []jira.ADFNode{
		para(txt("first")),
		para(txt("second")),
	}}
	table := jira.ADFNode{Type: jira.NodeTable, Content: []jira.ADFNode{
		{Type: jira.NodeTableRow, Content: []jira.ADFNode{cell}},
	}}
	got := Render(doc(table), testBaseURL)
	assert.Equal(t, "| first second |\n|-|", got)
}
