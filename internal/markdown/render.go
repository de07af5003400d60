package markdown

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dt-pm-tools/jiramd/internal/jira"
)

// Render converts an ADF document tree to markdown text. The input tree is
// never mutated and rendering never fails: nodes with an unknown type
// contribute no markup of their own, but their subtrees are still walked so
// recoverable text is kept. baseURL (may be empty) is used to build mention
// links; without it mentions degrade to plain @Name text.
func Render(doc *jira.ADFNode, baseURL string) string {
	if doc == nil {
		return ""
	}
	r := &renderer{baseURL: strings.TrimRight(baseURL, "/")}
	r.renderBlock(doc)
	return strings.TrimRight(r.b.String(), "\n")
}

type renderer struct {
	b       strings.Builder
	baseURL string
}

func (r *renderer) renderBlocks(nodes []jira.ADFNode) {
	for i := range nodes {
		r.renderBlock(&nodes[i])
	}
}

func (r *renderer) renderBlock(n *jira.ADFNode) {
	switch n.Type {
	case jira.NodeDoc:
		r.renderBlocks(n.Content)

	case jira.NodeParagraph:
		text := r.renderInline(n, false)
		if text != "" {
			r.b.WriteString(text)
			r.b.WriteString("\n\n")
		}

	case jira.NodeHeading:
		level := n.IntAttr("level", 1)
		if level < 1 {
			level = 1
		} else if level > 6 {
			level = 6
		}
		r.b.WriteString(strings.Repeat("#", level))
		r.b.WriteString(" ")
		r.b.WriteString(r.renderInline(n, false))
		r.b.WriteString("\n\n")

	case jira.NodeBulletList, jira.NodeOrderedList, jira.NodeTaskList:
		r.renderList(n, "")

	case jira.NodeCodeBlock:
		r.renderCodeBlock(n, "")
		r.b.WriteString("\n")

	case jira.NodeBlockquote:
		r.renderBlockquote(n)

	case jira.NodePanel:
		r.renderPanel(n)

	case jira.NodeDecisionList:
		r.renderDecisionList(n)

	case jira.NodeRule:
		r.b.WriteString("---\n\n")

	case jira.NodeTable:
		r.renderTable(n)

	case jira.NodeMediaSingle, jira.NodeMediaGroup:
		r.renderMediaNote(n)

	case jira.NodeText, jira.NodeMention, jira.NodeEmoji, jira.NodeDate,
		jira.NodeStatus, jira.NodeInlineCard, jira.NodeHardBreak:
		// Inline node at block level: malformed but recoverable.
		text := r.renderInlineNode(n, false)
		if text != "" {
			r.b.WriteString(text)
			r.b.WriteString("\n\n")
		}

	default:
		// Unknown block wrapper: no markup, keep walking.
		r.renderBlocks(n.Content)
	}
}

// renderInline renders the inline content of a container node. cell mode
// keeps the result on one line for table cells.
func (r *renderer) renderInline(n *jira.ADFNode, cell bool) string {
	var b strings.Builder
	for i := range n.Content {
		b.WriteString(r.renderInlineNode(&n.Content[i], cell))
	}
	return b.String()
}

func (r *renderer) renderInlineNode(n *jira.ADFNode, cell bool) string {
	switch n.Type {
	case jira.NodeText:
		return r.applyMarks(n.Text, n.Marks)

	case jira.NodeHardBreak:
		if cell {
			return " "
		}
		return "\\\n"

	case jira.NodeMention:
		name := n.StringAttr("text", n.StringAttr("displayName", ""))
		return EncodeMention(name, n.StringAttr("id", ""), r.baseURL)

	case jira.NodeEmoji:
		if text := n.StringAttr("text", ""); text != "" {
			return text
		}
		return n.StringAttr("shortName", "")

	case jira.NodeDate:
		return r.renderDate(n)

	case jira.NodeStatus:
		text := n.StringAttr("text", "")
		if text == "" {
			return statusTag("[no status]", "neutral")
		}
		return statusTag(text, n.StringAttr("color", "neutral"))

	case jira.NodeInlineCard:
		return fmt.Sprintf("[link](%s)", n.StringAttr("url", ""))

	default:
		// Salvage inline text from unknown wrappers.
		return r.renderInline(n, cell)
	}
}

// applyMarks wraps text in markdown delimiters. The order is fixed so
// overlapping marks never collide: bold outermost, then italic, then
// strike, then inline code innermost; a link (or mention) wraps the result.
func (r *renderer) applyMarks(text string, marks []jira.ADFMark) string {
	var strong, em, strike, code, underline bool
	var href string
	var linked bool

	for _, m := range marks {
		switch m.Type {
		case jira.MarkStrong:
			strong = true
		case jira.MarkEm:
			em = true
		case jira.MarkStrike:
			strike = true
		case jira.MarkCode:
			code = true
		case jira.MarkUnderline:
			underline = true
		case jira.MarkLink:
			if h, ok := m.Attrs["href"].(string); ok {
				href = h
				linked = true
			}
		}
	}

	// Mention-shaped links replace the whole run before any styling.
	if linked {
		if id := DecodeMention(href); id != "" {
			return EncodeMention(text, id, r.baseURL)
		}
	}

	if code {
		text = "`" + text + "`"
	}
	if strike {
		text = "~~" + text + "~~"
	}
	if em {
		text = "*" + text + "*"
	}
	if strong {
		text = "**" + text + "**"
	}
	if underline && !em && !strong {
		// No native markdown underline; emphasis is the closest rendering.
		text = "_" + text + "_"
	}
	if linked {
		text = "[" + text + "](" + href + ")"
	}
	return text
}

func (r *renderer) renderDate(n *jira.ADFNode) string {
	var ms int64
	switch v := n.Attrs["timestamp"].(type) {
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return dateTag("[invalid date]")
		}
		ms = parsed
	case float64:
		ms = int64(v)
	default:
		return dateTag("[no date]")
	}
	if ms <= 0 {
		return dateTag("[invalid date]")
	}
	return dateTag(time.UnixMilli(ms).UTC().Format("2006-01-02"))
}

// renderList emits bullet, ordered and task lists. Nesting is positional:
// each level indents by the width of its parent's item marker, which keeps
// the output re-parseable regardless of depth.
func (r *renderer) renderList(n *jira.ADFNode, indent string) {
	ordered := n.Type == jira.NodeOrderedList
	num := 1
	for i := range n.Content {
		item := &n.Content[i]
		switch item.Type {
		case jira.NodeTaskItem:
			box := "- [ ] "
			if item.StringAttr("state", "TODO") == "DONE" {
				box = "- [x] "
			}
			r.b.WriteString(indent + box + r.renderInline(item, false) + "\n")
		case jira.NodeListItem:
			marker := "- "
			if ordered {
				marker = fmt.Sprintf("%d. ", num)
				num++
			}
			r.renderListItem(item, indent, marker)
		default:
			r.renderListItem(item, indent, "- ")
		}
	}
	if indent == "" {
		r.b.WriteString("\n")
	}
}

func (r *renderer) renderListItem(item *jira.ADFNode, indent, marker string) {
	childIndent := indent + strings.Repeat(" ", len(marker))
	wrote := false
	for i := range item.Content {
		child := &item.Content[i]
		switch child.Type {
		case jira.NodeParagraph:
			line := r.renderInline(child, false)
			if !wrote {
				r.b.WriteString(indent + marker + line + "\n")
				wrote = true
			} else {
				r.b.WriteString(childIndent + line + "\n")
			}
		case jira.NodeBulletList, jira.NodeOrderedList, jira.NodeTaskList:
			if !wrote {
				r.b.WriteString(indent + marker + "\n")
				wrote = true
			}
			r.renderList(child, childIndent)
		case jira.NodeCodeBlock:
			if !wrote {
				r.b.WriteString(indent + marker + "\n")
				wrote = true
			}
			r.renderCodeBlock(child, childIndent)
		default:
			line := r.renderInlineNode(child, false)
			if line == "" {
				continue
			}
			if !wrote {
				r.b.WriteString(indent + marker + line + "\n")
				wrote = true
			} else {
				r.b.WriteString(childIndent + line + "\n")
			}
		}
	}
	if !wrote {
		r.b.WriteString(indent + marker + "\n")
	}
}

func (r *renderer) renderCodeBlock(n *jira.ADFNode, indent string) {
	var code strings.Builder
	for i := range n.Content {
		if n.Content[i].Type == jira.NodeText {
			code.WriteString(n.Content[i].Text)
		}
	}
	lang := n.StringAttr("language", "")

	r.b.WriteString(indent + "```" + lang + "\n")
	body := strings.TrimRight(code.String(), "\n")
	if body != "" {
		for _, line := range strings.Split(body, "\n") {
			r.b.WriteString(indent + line + "\n")
		}
	}
	r.b.WriteString(indent + "```\n")
}

// renderNested renders child blocks into a standalone string, used for
// blockquote and panel bodies before the "> " prefix is applied.
func (r *renderer) renderNested(nodes []jira.ADFNode) string {
	sub := &renderer{baseURL: r.baseURL}
	sub.renderBlocks(nodes)
	return strings.TrimRight(sub.b.String(), "\n")
}

func (r *renderer) writeQuoteLines(lines []string) {
	for _, line := range lines {
		if line == "" {
			r.b.WriteString(">\n")
		} else {
			r.b.WriteString("> " + line + "\n")
		}
	}
	r.b.WriteString("\n")
}

// splitLabelParagraph detects the label paragraph shape the parser
// synthesizes for alert and decision blockquotes: a paragraph holding a
// single bold-only text run. Returns the label text and remaining blocks.
func splitLabelParagraph(content []jira.ADFNode) (string, []jira.ADFNode, bool) {
	if len(content) == 0 {
		return "", nil, false
	}
	p := &content[0]
	if p.Type != jira.NodeParagraph || len(p.Content) != 1 {
		return "", nil, false
	}
	t := &p.Content[0]
	if t.Type != jira.NodeText || len(t.Marks) != 1 || t.Marks[0].Type != jira.MarkStrong {
		return "", nil, false
	}
	return t.Text, content[1:], true
}

func (r *renderer) renderBlockquote(n *jira.ADFNode) {
	// Fold a synthesized decision label back into its marker so the tag is
	// not emitted twice across round trips.
	if label, rest, ok := splitLabelParagraph(n.Content); ok {
		if code, isDecision := DecisionState(label); isDecision {
			r.writeQuoteLines(r.decisionLines(code, rest))
			return
		}
	}
	sub := r.renderNested(n.Content)
	if sub == "" {
		return
	}
	r.writeQuoteLines(strings.Split(sub, "\n"))
}

func (r *renderer) decisionLines(code string, rest []jira.ADFNode) []string {
	head := decisionTag(code)
	i := 0
	if len(rest) > 0 && rest[0].Type == jira.NodeParagraph {
		if text := r.renderInline(&rest[0], false); text != "" {
			head += " " + text
		}
		i = 1
	}
	lines := []string{head}
	if i < len(rest) {
		if sub := r.renderNested(rest[i:]); sub != "" {
			lines = append(lines, strings.Split(sub, "\n")...)
		}
	}
	return lines
}

func (r *renderer) renderPanel(n *jira.ADFNode) {
	panelType := n.StringAttr("panelType", "info")
	tag := AlertForPanel(panelType)

	content := n.Content
	if label, rest, ok := splitLabelParagraph(content); ok && label == AlertLabel(tag) {
		content = rest
	}

	lines := []string{"[!" + tag + "]"}
	if sub := r.renderNested(content); sub != "" {
		lines = append(lines, strings.Split(sub, "\n")...)
	}
	r.writeQuoteLines(lines)
}

func (r *renderer) renderDecisionList(n *jira.ADFNode) {
	var lines []string
	for i := range n.Content {
		item := &n.Content[i]
		if item.Type != jira.NodeDecisionItem {
			continue
		}
		line := decisionTag(decisionStateCode(item.StringAttr("state", "DECIDED")))
		if text := strings.TrimSpace(plainText(item)); text != "" {
			line += " " + text
		}
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return
	}
	r.writeQuoteLines(lines)
}

// plainText collects the raw text of a subtree, ignoring all structure.
func plainText(n *jira.ADFNode) string {
	var b strings.Builder
	var walk func(n *jira.ADFNode)
	walk = func(n *jira.ADFNode) {
		if n.Type == jira.NodeText {
			b.WriteString(n.Text)
		}
		for i := range n.Content {
			walk(&n.Content[i])
		}
	}
	walk(n)
	return b.String()
}

func (r *renderer) renderMediaNote(n *jira.ADFNode) {
	var walk func(n *jira.ADFNode)
	walk = func(n *jira.ADFNode) {
		if n.Type == jira.NodeMedia {
			filename := n.StringAttr("alt", "unknown")
			r.b.WriteString(fmt.Sprintf("*(See file %q in attachments tab)*\n\n", filename))
			return
		}
		for i := range n.Content {
			walk(&n.Content[i])
		}
	}
	walk(n)
}

// renderTable emits a GFM table. The separator row goes directly after the
// first row whether or not the ADF marks it as a header: that keeps
// single-row tables re-parseable. A trailing blank line always terminates
// the table so a following paragraph cannot be misread as a continuation.
func (r *renderer) renderTable(n *jira.ADFNode) {
	var rows [][]string
	for i := range n.Content {
		row := &n.Content[i]
		if row.Type != jira.NodeTableRow {
			continue
		}
		var cells []string
		for j := range row.Content {
			cell := &row.Content[j]
			if cell.Type != jira.NodeTableCell && cell.Type != jira.NodeTableHeader {
				continue
			}
			cells = append(cells, r.renderCellText(cell))
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 {
		return
	}

	maxCols := 0
	for _, row := range rows {
		if len(row) > maxCols {
			maxCols = len(row)
		}
	}

	r.writeTableRow(rows[0], maxCols)
	r.b.WriteString("|" + strings.Repeat("-|", maxCols) + "\n")
	for _, row := range rows[1:] {
		r.writeTableRow(row, maxCols)
	}
	r.b.WriteString("\n")
}

func (r *renderer) writeTableRow(cells []string, cols int) {
	for len(cells) < cols {
		cells = append(cells, "")
	}
	r.b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
}

// renderCellText flattens a cell to a single line of inline markdown.
// Multi-block cells join with spaces (lossy; the parse side warns about
// re-embedding anything fancier). Literal pipes are escaped so they cannot
// terminate the cell.
func (r *renderer) renderCellText(cell *jira.ADFNode) string {
	var parts []string
	for i := range cell.Content {
		child := &cell.Content[i]
		var text string
		switch child.Type {
		case jira.NodeParagraph:
			text = r.renderInline(child, true)
		default:
			text = strings.TrimSpace(plainText(child))
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	joined := strings.TrimSpace(strings.Join(parts, " "))
	return strings.ReplaceAll(joined, "|", "\\|")
}
