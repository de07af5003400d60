package markdown

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/dt-pm-tools/jiramd/internal/jira"
)

var (
	engineOnce sync.Once
	engine     goldmark.Markdown
)

// getEngine builds the shared goldmark instance. GFM supplies tables, task
// lists and strikethrough; the transformers rewrite alert and decision
// blockquotes before conversion.
func getEngine() goldmark.Markdown {
	engineOnce.Do(func() {
		engine = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(
				parser.WithASTTransformers(
					util.Prioritized(decisionTransformer{}, 100),
					util.Prioritized(alertTransformer{}, 200),
				),
			),
		)
	})
	return engine
}

// Engine exposes the shared goldmark instance so other renderers (the
// terminal preview) see the same alert and decision rewriting this package
// applies. The parser is safe for concurrent use.
func Engine() goldmark.Markdown {
	return getEngine()
}

// Parse converts markdown text to an ADF document, discarding any warnings.
func Parse(input string) *jira.ADFNode {
	doc, _ := ParseWithWarnings(input)
	return doc
}

// ParseWithWarnings converts markdown text to an ADF document. Conversion
// never fails: constructs that cannot be represented degrade to the closest
// ADF shape and each degradation is reported as a warning. Empty input yields
// a document holding a single empty paragraph, which is the smallest body the
// tracker accepts.
func ParseWithWarnings(input string) (*jira.ADFNode, []string) {
	warnings := lintMarkdown(input)
	src := []byte(input)

	pc := parser.NewContext()
	pc.Set(warningsKey, &warnings)
	root := getEngine().Parser().Parse(text.NewReader(src), parser.WithContext(pc))

	c := &converter{src: src, warnings: &warnings}
	content := c.convertBlocks(root)
	if len(content) == 0 {
		content = []jira.ADFNode{{Type: jira.NodeParagraph}}
	}
	return &jira.ADFNode{Type: jira.NodeDoc, Version: 1, Content: content}, warnings
}

type converter struct {
	src      []byte
	warnings *[]string
}

func (c *converter) warn(format string, args ...any) {
	*c.warnings = append(*c.warnings, fmt.Sprintf(format, args...))
}

func (c *converter) convertBlocks(parent ast.Node) []jira.ADFNode {
	var out []jira.ADFNode
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		out = append(out, c.convertBlock(child)...)
	}
	return out
}

func (c *converter) convertBlock(n ast.Node) []jira.ADFNode {
	switch n := n.(type) {
	case *ast.Paragraph:
		return []jira.ADFNode{{Type: jira.NodeParagraph, Content: c.convertInlines(n)}}

	case *ast.TextBlock:
		// Tight list items hold their text in a TextBlock.
		return []jira.ADFNode{{Type: jira.NodeParagraph, Content: c.convertInlines(n)}}

	case *ast.Heading:
		level := n.Level
		if level < 1 {
			level = 1
		} else if level > 6 {
			level = 6
		}
		return []jira.ADFNode{{
			Type:    jira.NodeHeading,
			Attrs:   map[string]any{"level": level},
			Content: c.convertInlines(n),
		}}

	case *ast.ThematicBreak:
		return []jira.ADFNode{{Type: jira.NodeRule}}

	case *ast.FencedCodeBlock:
		lang := string(n.Language(c.src))
		return []jira.ADFNode{c.codeBlockNode(n, lang)}

	case *ast.CodeBlock:
		return []jira.ADFNode{c.codeBlockNode(n, "")}

	case *ast.List:
		return c.convertList(n)

	case *ast.Blockquote:
		return c.convertBlockquote(n)

	case *extast.Table:
		return c.convertTable(n)

	case *ast.HTMLBlock:
		c.warn("raw HTML block kept as plain text")
		raw := strings.TrimRight(string(c.linesValue(n)), "\n")
		if raw == "" {
			return nil
		}
		return []jira.ADFNode{{
			Type:    jira.NodeParagraph,
			Content: []jira.ADFNode{{Type: jira.NodeText, Text: raw}},
		}}

	default:
		c.warn("unsupported markdown element %q was skipped", n.Kind().String())
		return nil
	}
}

func (c *converter) linesValue(n ast.Node) []byte {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(c.src))
	}
	return []byte(b.String())
}

func (c *converter) codeBlockNode(n ast.Node, lang string) jira.ADFNode {
	body := strings.TrimRight(string(c.linesValue(n)), "\n")
	node := jira.ADFNode{Type: jira.NodeCodeBlock}
	if lang != "" {
		node.Attrs = map[string]any{"language": lang}
	}
	if body != "" {
		node.Content = []jira.ADFNode{{Type: jira.NodeText, Text: body}}
	}
	return node
}

// Inline conversion. Marks accumulate down the tree so nested emphasis maps
// onto flat ADF mark lists.

func (c *converter) convertInlines(parent ast.Node) []jira.ADFNode {
	var out []jira.ADFNode
	c.appendInlines(&out, parent, nil)
	return out
}

func withMark(marks []jira.ADFMark, m jira.ADFMark) []jira.ADFMark {
	out := make([]jira.ADFMark, len(marks), len(marks)+1)
	copy(out, marks)
	return append(out, m)
}

func textNode(s string, marks []jira.ADFMark) jira.ADFNode {
	return jira.ADFNode{Type: jira.NodeText, Text: s, Marks: marks}
}

// appendText adds a text run, merging it into the previous node when the
// mark sets match. goldmark splits a single source line into several Text
// tokens; one styled run should still map to one ADF text node.
func appendText(out *[]jira.ADFNode, s string, marks []jira.ADFMark) {
	if s == "" {
		return
	}
	if n := len(*out); n > 0 {
		last := &(*out)[n-1]
		if last.Type == jira.NodeText && marksEqual(last.Marks, marks) {
			last.Text += s
			return
		}
	}
	*out = append(*out, textNode(s, marks))
}

func marksEqual(a, b []jira.ADFMark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Type != b[i].Type {
			return false
		}
		if a[i].Attrs["href"] != b[i].Attrs["href"] {
			return false
		}
	}
	return true
}

var dateChipRe = regexp.MustCompile(`^\[date\](\d{4}-\d{2}-\d{2})$`)

func (c *converter) appendInlines(out *[]jira.ADFNode, parent ast.Node, marks []jira.ADFMark) {
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Text:
			appendText(out, string(n.Segment.Value(c.src)), marks)
			if n.HardLineBreak() {
				*out = append(*out, jira.ADFNode{Type: jira.NodeHardBreak})
			} else if n.SoftLineBreak() {
				appendText(out, " ", marks)
			}

		case *ast.String:
			appendText(out, string(n.Value), marks)

		case *ast.CodeSpan:
			c.appendCodeSpan(out, n, marks)

		case *ast.Emphasis:
			mark := jira.ADFMark{Type: jira.MarkEm}
			if n.Level >= 2 {
				mark.Type = jira.MarkStrong
			}
			c.appendInlines(out, n, withMark(marks, mark))

		case *extast.Strikethrough:
			c.appendInlines(out, n, withMark(marks, jira.ADFMark{Type: jira.MarkStrike}))

		case *ast.Link:
			c.appendLink(out, n, marks)

		case *ast.AutoLink:
			url := string(n.URL(c.src))
			mark := jira.ADFMark{Type: jira.MarkLink, Attrs: map[string]any{"href": url}}
			*out = append(*out, textNode(url, withMark(marks, mark)))

		case *ast.Image:
			c.warn("inline image degraded to a link")
			alt := strings.TrimSpace(nodeText(n, c.src))
			if alt == "" {
				alt = "image"
			}
			mark := jira.ADFMark{Type: jira.MarkLink, Attrs: map[string]any{"href": string(n.Destination)}}
			*out = append(*out, textNode(alt, withMark(marks, mark)))

		case *ast.RawHTML:
			c.warn("raw HTML kept as plain text")
			var b strings.Builder
			for i := 0; i < n.Segments.Len(); i++ {
				seg := n.Segments.At(i)
				b.Write(seg.Value(c.src))
			}
			if b.Len() > 0 {
				*out = append(*out, textNode(b.String(), marks))
			}

		case *extast.TaskCheckBox:
			// Consumed by list conversion.

		default:
			c.warn("unsupported inline element %q was skipped", child.Kind().String())
		}
	}
}

// appendCodeSpan handles inline code, which doubles as the carrier for date
// and status chips. Dates convert back to date nodes; status chips only exist
// on the way out of the tracker, so they stay literal code and warn.
func (c *converter) appendCodeSpan(out *[]jira.ADFNode, n *ast.CodeSpan, marks []jira.ADFMark) {
	inner := string(n.Text(c.src))

	if m := dateChipRe.FindStringSubmatch(inner); m != nil {
		t, err := time.Parse("2006-01-02", m[1])
		if err == nil {
			*out = append(*out, jira.ADFNode{
				Type:  jira.NodeDate,
				Attrs: map[string]any{"timestamp": strconv.FormatInt(t.UnixMilli(), 10)},
			})
			return
		}
		c.warn("date chip %q has an impossible date; kept as code", m[1])
	}
	if statusTagRe.MatchString(inner) {
		c.warn("status chips are display-only and upload as literal code")
	}

	*out = append(*out, textNode(inner, withMark(marks, jira.ADFMark{Type: jira.MarkCode})))
}

func (c *converter) appendLink(out *[]jira.ADFNode, n *ast.Link, marks []jira.ADFMark) {
	dest := string(n.Destination)
	if id := DecodeMention(dest); id != "" {
		name := strings.TrimSpace(nodeText(n, c.src))
		if strings.HasPrefix(name, "@") {
			*out = append(*out, jira.ADFNode{
				Type:  jira.NodeMention,
				Attrs: map[string]any{"id": id, "text": name},
			})
			return
		}
	}
	mark := jira.ADFMark{Type: jira.MarkLink, Attrs: map[string]any{"href": dest}}
	c.appendInlines(out, n, withMark(marks, mark))
}

// nodeText collects the raw source text under an inline node.
func nodeText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := child.(*ast.Text); ok {
				b.Write(t.Segment.Value(src))
			}
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// Lists.

func (c *converter) convertList(n *ast.List) []jira.ADFNode {
	if listHasCheckbox(n) {
		return c.convertTaskList(n)
	}
	typ := jira.NodeBulletList
	if n.IsOrdered() {
		typ = jira.NodeOrderedList
	}
	var items []jira.ADFNode
	for it := n.FirstChild(); it != nil; it = it.NextSibling() {
		items = append(items, jira.ADFNode{
			Type:    jira.NodeListItem,
			Content: c.convertBlocks(it),
		})
	}
	return []jira.ADFNode{{Type: typ, Content: items}}
}

func itemCheckbox(item ast.Node) *extast.TaskCheckBox {
	first := item.FirstChild()
	if first == nil {
		return nil
	}
	cb, _ := first.FirstChild().(*extast.TaskCheckBox)
	return cb
}

func listHasCheckbox(n *ast.List) bool {
	for it := n.FirstChild(); it != nil; it = it.NextSibling() {
		if itemCheckbox(it) != nil {
			return true
		}
	}
	return false
}

// convertTaskList maps a checkbox list onto an ADF task list. Task items only
// hold inline content, so anything past the first block of an item is dropped
// with a warning; an item with no checkbox joins the list as TODO.
func (c *converter) convertTaskList(n *ast.List) []jira.ADFNode {
	var items []jira.ADFNode
	for it := n.FirstChild(); it != nil; it = it.NextSibling() {
		state := "TODO"
		if cb := itemCheckbox(it); cb == nil {
			c.warn("item without checkbox in a task list; treated as TODO")
		} else if cb.IsChecked {
			state = "DONE"
		}

		var inline []jira.ADFNode
		if first := it.FirstChild(); first != nil {
			c.appendInlines(&inline, first, nil)
			if it.ChildCount() > 1 {
				c.warn("task items hold a single line; extra content was dropped")
			}
		}
		trimLeadingInlineSpace(inline)
		items = append(items, jira.ADFNode{
			Type:    jira.NodeTaskItem,
			Attrs:   map[string]any{"state": state},
			Content: inline,
		})
	}
	return []jira.ADFNode{{Type: jira.NodeTaskList, Content: items}}
}

// trimLeadingInlineSpace drops the space the checkbox leaves in front of the
// first text run.
func trimLeadingInlineSpace(inline []jira.ADFNode) {
	if len(inline) == 0 || inline[0].Type != jira.NodeText {
		return
	}
	inline[0].Text = strings.TrimLeft(inline[0].Text, " ")
}

// Blockquotes and panels.

func (c *converter) convertBlockquote(n *ast.Blockquote) []jira.ADFNode {
	content := c.quoteChildren(n)
	if v, ok := n.AttributeString(PanelTypeAttr); ok {
		panelType, _ := v.(string)
		if panelType == "" {
			panelType = "info"
		}
		return []jira.ADFNode{{
			Type:    jira.NodePanel,
			Attrs:   map[string]any{"panelType": panelType},
			Content: content,
		}}
	}
	return []jira.ADFNode{{Type: jira.NodeBlockquote, Content: content}}
}

// quoteChildren converts blockquote children, splicing nested quotes into the
// parent since the tracker cannot nest them.
func (c *converter) quoteChildren(n ast.Node) []jira.ADFNode {
	var out []jira.ADFNode
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if inner, ok := child.(*ast.Blockquote); ok {
			c.warn("nested blockquote was flattened into its parent")
			out = append(out, c.quoteChildren(inner)...)
			continue
		}
		out = append(out, c.convertBlock(child)...)
	}
	return out
}

// Tables. The header row becomes tableHeader cells; a table with only a
// header row still produces one row so no content is lost.

func (c *converter) convertTable(n *extast.Table) []jira.ADFNode {
	var rows []jira.ADFNode
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		var cellType jira.NodeType
		switch child.(type) {
		case *extast.TableHeader:
			cellType = jira.NodeTableHeader
		case *extast.TableRow:
			cellType = jira.NodeTableCell
		default:
			continue
		}
		var cells []jira.ADFNode
		for cell := child.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, jira.ADFNode{
				Type: cellType,
				Content: []jira.ADFNode{{
					Type:    jira.NodeParagraph,
					Content: c.convertCellInlines(cell),
				}},
			})
		}
		rows = append(rows, jira.ADFNode{Type: jira.NodeTableRow, Content: cells})
	}
	if len(rows) == 0 {
		return nil
	}
	return []jira.ADFNode{{Type: jira.NodeTable, Content: rows}}
}

// convertCellInlines converts a table cell's inline content. Literal pipes
// inside GFM cells are escaped as \| and goldmark keeps the backslash in the
// text, so it is unescaped here; the renderer re-escapes on the way out.
func (c *converter) convertCellInlines(cell ast.Node) []jira.ADFNode {
	nodes := c.convertInlines(cell)
	unescapeCellPipes(nodes)
	return nodes
}

func unescapeCellPipes(nodes []jira.ADFNode) {
	for i := range nodes {
		if nodes[i].Type == jira.NodeText {
			nodes[i].Text = strings.ReplaceAll(nodes[i].Text, `\|`, "|")
		}
		unescapeCellPipes(nodes[i].Content)
	}
}
