// Package preview renders ticket markdown as styled ANSI text for
// read-only terminal display. It parses with the same engine as the ADF
// converter, so alert and decision blockquotes arrive pre-labelled and
// panel-typed and only need coloring here.
package preview

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dt-pm-tools/jiramd/internal/markdown"
)

// wrapBreakpoints are the characters ansi.Wrap may break a line on.
const wrapBreakpoints = " ,.;-+|"

// Render converts a markdown ticket body into ANSI-styled text wrapped to
// width columns. The color profile is forced to ANSI256 because the output
// is always for a terminal; auto-detection would strip color under pipes
// and tests.
func Render(input string, theme Theme, width int) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	src := []byte(input)
	doc := markdown.Engine().Parser().Parse(text.NewReader(src))

	lip := lipgloss.NewRenderer(os.Stderr, termenv.WithProfile(termenv.ANSI256))
	lip.SetColorProfile(termenv.ANSI256)

	// nl starts at 2 so blank-line requests at the very top of the
	// document do not emit leading newlines.
	p := &painter{src: src, theme: theme, width: width, lip: lip, nl: 2}
	_ = ast.Walk(doc, p.walk)
	return strings.TrimRight(p.out.String(), "\n")
}

// painter walks the goldmark AST accumulating inline runs, then wraps and
// prefixes them when the enclosing block closes. A streaming renderer
// cannot word-wrap a paragraph it has not finished reading, hence the
// accumulate-then-flush shape.
type painter struct {
	src   []byte
	theme Theme
	width int
	lip   *lipgloss.Renderer

	out strings.Builder
	nl  int // trailing newlines already in out

	inline strings.Builder
	bold   int
	italic int
	strike int

	prefixes    []prefixPart
	prefix      string
	prefixWidth int
	firstLine   string // one-shot prefix for a list item's first line

	lists []listLevel

	// Accent colors of open blockquotes, innermost last. Empty string for
	// ordinary quotes, a panel color for alert and decision quotes.
	panels []lipgloss.Color
}

func (p *painter) panelAccent() lipgloss.Color {
	for i := len(p.panels) - 1; i >= 0; i-- {
		if p.panels[i] != "" {
			return p.panels[i]
		}
	}
	return ""
}

type prefixPart struct {
	text  string
	width int
}

type listLevel struct {
	ordered bool
	counter int
	tight   bool
}

func (p *painter) style() lipgloss.Style {
	return p.lip.NewStyle()
}

func (p *painter) contentWidth() int {
	w := p.width - p.prefixWidth
	if w < 10 {
		w = 10
	}
	return w
}

func (p *painter) pushPrefix(text string, width int) {
	p.prefixes = append(p.prefixes, prefixPart{text, width})
	p.prefix += text
	p.prefixWidth += width
}

func (p *painter) popPrefix() {
	if len(p.prefixes) == 0 {
		return
	}
	top := p.prefixes[len(p.prefixes)-1]
	p.prefixes = p.prefixes[:len(p.prefixes)-1]
	p.prefix = p.prefix[:len(p.prefix)-len(top.text)]
	p.prefixWidth -= top.width
}

func (p *painter) write(s string) {
	if s == "" {
		return
	}
	p.out.WriteString(s)
	count := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\n'; i-- {
		count++
	}
	if count == len(s) {
		p.nl += count
	} else {
		p.nl = count
	}
}

func (p *painter) endLine() {
	if p.nl < 1 {
		p.write("\n")
	}
}

func (p *painter) blankLine() {
	for p.nl < 2 {
		p.write("\n")
	}
}

// takePrefix returns the prefix for the next emitted line, consuming the
// one-shot bullet prefix if one is pending.
func (p *painter) takePrefix() string {
	if p.firstLine != "" {
		first := p.firstLine
		p.firstLine = ""
		return first
	}
	return p.prefix
}

func (p *painter) prefixed(content string) string {
	lines := strings.Split(content, "\n")
	var b strings.Builder
	for i, line := range lines {
		if i == 0 {
			b.WriteString(p.takePrefix())
		} else {
			b.WriteString("\n" + p.prefix)
		}
		b.WriteString(line)
	}
	return b.String()
}

// flushInline wraps the accumulated inline run to the current width and
// prefixes every line.
func (p *painter) flushInline() string {
	content := p.inline.String()
	p.inline.Reset()
	if content == "" {
		return ""
	}
	return p.prefixed(ansi.Wrap(content, p.contentWidth(), wrapBreakpoints))
}

// styled applies the active inline decorations. Bold text inside a panel
// takes the panel accent so the label paragraph reads as part of the frame.
func (p *painter) styled(content string) string {
	s := p.style().Foreground(p.theme.Text)
	if p.bold > 0 {
		s = s.Bold(true)
		if accent := p.panelAccent(); accent != "" {
			s = s.Foreground(accent)
		}
	}
	if p.italic > 0 {
		s = s.Italic(true)
	}
	if p.strike > 0 {
		s = s.Strikethrough(true)
	}
	return s.Render(content)
}

// inlineOf renders a node's children into a detached string, preserving the
// caller's accumulator and style counters.
func (p *painter) inlineOf(node ast.Node) string {
	saved := p.inline.String()
	savedBold, savedItalic, savedStrike := p.bold, p.italic, p.strike

	p.inline.Reset()
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		_ = ast.Walk(child, p.walk)
	}
	result := p.inline.String()

	p.inline.Reset()
	p.inline.WriteString(saved)
	p.bold, p.italic, p.strike = savedBold, savedItalic, savedStrike
	return result
}

func (p *painter) inTightList() bool {
	return len(p.lists) > 0 && p.lists[len(p.lists)-1].tight
}

func (p *painter) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node.Kind() {

	case ast.KindParagraph, ast.KindTextBlock:
		if entering {
			p.inline.Reset()
		} else if flushed := p.flushInline(); flushed != "" {
			p.write(flushed)
			p.endLine()
			if !p.inTightList() {
				p.blankLine()
			}
		}

	case ast.KindHeading:
		if entering {
			p.inline.Reset()
		} else {
			p.paintHeading(node.(*ast.Heading))
		}

	case ast.KindFencedCodeBlock:
		if entering {
			n := node.(*ast.FencedCodeBlock)
			p.paintCode(blockLines(n, p.src), string(n.Language(p.src)))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindCodeBlock:
		if entering {
			p.paintCode(blockLines(node, p.src), "")
			return ast.WalkSkipChildren, nil
		}

	case ast.KindBlockquote:
		p.handleQuote(node, entering)

	case ast.KindList:
		if entering {
			n := node.(*ast.List)
			start := 0
			if n.IsOrdered() {
				start = n.Start
			}
			p.lists = append(p.lists, listLevel{n.IsOrdered(), start, n.IsTight})
		} else {
			if len(p.lists) > 0 {
				p.lists = p.lists[:len(p.lists)-1]
			}
			if !p.inTightList() {
				p.blankLine()
			}
		}

	case ast.KindListItem:
		if entering {
			p.enterItem()
		} else {
			p.popPrefix()
			if p.inTightList() {
				p.endLine()
			} else {
				p.blankLine()
			}
		}

	case ast.KindThematicBreak:
		if entering {
			rule := p.style().Foreground(p.theme.Border).
				Render(strings.Repeat("─", p.contentWidth()))
			p.blankLine()
			p.write(p.prefixed(rule))
			p.endLine()
			p.blankLine()
		}

	case ast.KindHTMLBlock:
		if entering {
			return ast.WalkSkipChildren, nil // not meaningful on a terminal
		}

	case ast.KindText:
		if entering {
			n := node.(*ast.Text)
			p.inline.WriteString(p.styled(string(n.Segment.Value(p.src))))
			if n.SoftLineBreak() {
				p.inline.WriteString(" ")
			}
			if n.HardLineBreak() {
				p.inline.WriteString("\n")
			}
		}

	case ast.KindString:
		if entering {
			p.inline.WriteString(p.styled(string(node.(*ast.String).Value)))
		}

	case ast.KindEmphasis:
		if node.(*ast.Emphasis).Level >= 2 {
			p.bold += enterDelta(entering)
		} else {
			p.italic += enterDelta(entering)
		}

	case ast.KindCodeSpan:
		if entering {
			p.paintCodeSpan(node)
			return ast.WalkSkipChildren, nil
		}

	case ast.KindLink:
		if entering {
			p.paintLink(node.(*ast.Link))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindAutoLink:
		if entering {
			url := string(node.(*ast.AutoLink).URL(p.src))
			p.inline.WriteString(p.style().Foreground(p.theme.Link).Render(url))
		}

	case ast.KindImage:
		if entering {
			alt := p.inlineOf(node)
			faint := p.style().Foreground(p.theme.Faint)
			p.inline.WriteString(faint.Render("[" + alt + "]"))
			if dest := string(node.(*ast.Image).Destination); dest != "" {
				p.inline.WriteString(" " + faint.Render("("+dest+")"))
			}
			return ast.WalkSkipChildren, nil
		}

	case ast.KindRawHTML:
		// Dropped; tags carry no terminal meaning.

	case extast.KindStrikethrough:
		p.strike += enterDelta(entering)

	case extast.KindTable:
		if entering {
			p.paintTable(node.(*extast.Table))
			return ast.WalkSkipChildren, nil
		}

	case extast.KindTaskCheckBox:
		if entering {
			// The checkbox parser consumes the separator space too.
			if node.(*extast.TaskCheckBox).IsChecked {
				p.inline.WriteString(p.style().Foreground(p.theme.Done).Render("[x]") + " ")
			} else {
				p.inline.WriteString(p.styled("[ ]") + " ")
			}
		}
	}

	return ast.WalkContinue, nil
}

func enterDelta(entering bool) int {
	if entering {
		return 1
	}
	return -1
}

func blockLines(node ast.Node, src []byte) string {
	var b strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return b.String()
}

func (p *painter) paintHeading(heading *ast.Heading) {
	content := ansi.Strip(p.inline.String())
	p.inline.Reset()
	if content == "" {
		return
	}
	s := p.style().Bold(true).Foreground(p.theme.Text)
	if heading.Level <= 2 {
		s = s.Foreground(p.theme.Heading)
	}
	p.blankLine()
	p.write(p.prefixed(ansi.Wrap(s.Render(content), p.contentWidth(), wrapBreakpoints)))
	p.endLine()
	p.blankLine()
}

func (p *painter) paintCode(code, language string) {
	code = strings.TrimRight(code, "\n")

	var lines []string
	if language != "" {
		var buf strings.Builder
		if err := quick.Highlight(&buf, code, language, "terminal256", "monokai"); err == nil {
			for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
				lines = append(lines, strings.TrimRight(line, " \t"))
			}
		}
	}
	if lines == nil {
		// Styled line by line; a single multi-line Render would pad every
		// line to the widest one.
		faint := p.style().Foreground(p.theme.Faint)
		for _, line := range strings.Split(code, "\n") {
			lines = append(lines, faint.Render(strings.TrimRight(line, " \t")))
		}
	}

	p.blankLine()
	for _, line := range lines {
		p.write(p.takePrefix() + line)
		p.write("\n")
	}
	p.blankLine()
}

// handleQuote opens a vertical bar for blockquotes. Alert and decision
// quotes carry a panel type attribute from the shared parse, which picks
// the accent color for the bar and the label.
func (p *painter) handleQuote(node ast.Node, entering bool) {
	if entering {
		barColor := p.theme.Border
		var accent lipgloss.Color
		if v, ok := node.AttributeString(markdown.PanelTypeAttr); ok {
			if s, ok := v.(string); ok {
				accent = p.theme.panelColor(s)
				barColor = accent
			}
		}
		bar := p.style().Foreground(barColor).Render("│") + " "
		p.pushPrefix(bar, 2)
		p.panels = append(p.panels, accent)
		return
	}
	p.popPrefix()
	if len(p.panels) > 0 {
		p.panels = p.panels[:len(p.panels)-1]
	}
	p.blankLine()
}

func (p *painter) enterItem() {
	if len(p.lists) == 0 {
		return
	}
	top := &p.lists[len(p.lists)-1]

	bullet := "- "
	if top.ordered {
		bullet = fmt.Sprintf("%d. ", top.counter)
		top.counter++
	}

	p.firstLine = p.prefix + bullet
	p.pushPrefix(strings.Repeat(" ", len(bullet)), len(bullet))
}

var (
	statusChipRe = regexp.MustCompile(`^\[status:([nrbgypt])\](.+)$`)
	dateChipRe   = regexp.MustCompile(`^\[date\](.+)$`)
)

// paintCodeSpan renders inline code, turning status and date chips into
// colored badges instead of literal tag text.
func (p *painter) paintCodeSpan(node ast.Node) {
	var code strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Text:
			code.Write(n.Segment.Value(p.src))
		case *ast.String:
			code.Write(n.Value)
		}
	}
	inner := code.String()

	if m := statusChipRe.FindStringSubmatch(inner); m != nil {
		s := p.style().Bold(true).Foreground(p.theme.statusColor(m[1][0]))
		p.inline.WriteString(s.Render(strings.ToUpper(m[2])))
		return
	}
	if m := dateChipRe.FindStringSubmatch(inner); m != nil {
		p.inline.WriteString(p.style().Foreground(p.theme.Date).Render(m[1]))
		return
	}
	p.inline.WriteString(p.style().Foreground(p.theme.Faint).Render(inner))
}

// paintLink renders links as "text (url)". Mention links lose the URL;
// the @name in accent color reads better than a people-directory address.
func (p *painter) paintLink(node *ast.Link) {
	display := p.inlineOf(node)
	url := string(node.Destination)

	if markdown.DecodeMention(url) != "" {
		name := ansi.Strip(display)
		p.inline.WriteString(p.style().Foreground(p.theme.Mention).Render(name))
		return
	}

	p.inline.WriteString(display)
	if url != "" {
		p.inline.WriteString(" " + p.style().Foreground(p.theme.Faint).Render("("+url+")"))
	}
}

// paintTable lays out a GFM table with padded, two-space separated columns.
// Columns wider than their share of the terminal are truncated; ticket
// tables are metadata-shaped, not prose-shaped, so truncation beats
// wrapping here.
func (p *painter) paintTable(table *extast.Table) {
	var header []string
	var rows [][]string
	for child := table.FirstChild(); child != nil; child = child.NextSibling() {
		switch child.Kind() {
		case extast.KindTableHeader:
			header = p.collectRow(child)
		case extast.KindTableRow:
			rows = append(rows, p.collectRow(child))
		}
	}

	cols := len(header)
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return
	}

	widths := make([]int, cols)
	measure := func(row []string) {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(header)
	for _, row := range rows {
		measure(row)
	}

	// Cap each column at an even share of the available width.
	const gap = "  "
	if share := (p.contentWidth() - len(gap)*(cols-1)) / cols; share >= 3 {
		for i := range widths {
			if widths[i] > share {
				widths[i] = share
			}
		}
	}

	p.blankLine()
	if len(header) > 0 {
		bold := p.style().Bold(true).Foreground(p.theme.Text)
		p.write(p.takePrefix() + p.formatRow(header, widths, bold))
		p.endLine()
		var parts []string
		for _, w := range widths {
			parts = append(parts, strings.Repeat("─", w))
		}
		border := p.style().Foreground(p.theme.Border)
		p.write(p.prefix + border.Render(strings.Join(parts, gap)))
		p.endLine()
	}
	for _, row := range rows {
		p.write(p.prefix + p.formatRow(row, widths, p.style()))
		p.endLine()
	}
	p.blankLine()
}

func (p *painter) collectRow(row ast.Node) []string {
	var cells []string
	for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
		if cell.Kind() == extast.KindTableCell {
			cells = append(cells, p.inlineOf(cell))
		}
	}
	return cells
}

func (p *painter) formatRow(cells []string, widths []int, base lipgloss.Style) string {
	var parts []string
	for i, width := range widths {
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		if lipgloss.Width(cell) > width {
			cell = ansi.Truncate(cell, width, "…")
		}
		if pad := width - lipgloss.Width(cell); pad > 0 {
			cell += strings.Repeat(" ", pad)
		}
		parts = append(parts, cell)
	}
	return base.Render(strings.Join(parts, "  "))
}
