package markdown

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// decisionTransformer rewrites decision blockquotes. A blockquote whose first
// paragraph opens with the inline code `[decision:d]` (or :a / :u) loses the
// code span and gains a bold DECIDED / ACKNOWLEDGED / UP FOR DISCUSSION label
// paragraph. An unknown state letter leaves the code span untouched and only
// records a warning.
type decisionTransformer struct{}

func (decisionTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	src := reader.Source()
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		bq, ok := n.(*ast.Blockquote)
		if !ok {
			return ast.WalkContinue, nil
		}
		para, ok := bq.FirstChild().(*ast.Paragraph)
		if !ok {
			return ast.WalkContinue, nil
		}
		span, ok := para.FirstChild().(*ast.CodeSpan)
		if !ok {
			return ast.WalkContinue, nil
		}

		inner := string(span.Text(src))
		m := decisionMarkerRe.FindStringSubmatch(inner)
		if m == nil {
			if near := decisionAnyRe.FindStringSubmatch(inner); near != nil {
				addWarning(pc, "invalid decision state %q (want d, a or u); left as code", near[1])
			}
			return ast.WalkContinue, nil
		}

		para.RemoveChild(para, span)
		trimLeadingSpace(para, src)
		if para.FirstChild() == nil {
			bq.RemoveChild(bq, para)
		}
		insertLabelParagraph(bq, DecisionLabel(m[1]))
		return ast.WalkContinue, nil
	})
}

// trimLeadingSpace drops the single space that separated the marker from the
// decision text.
func trimLeadingSpace(para *ast.Paragraph, src []byte) {
	t, ok := para.FirstChild().(*ast.Text)
	if !ok {
		return
	}
	val := string(t.Segment.Value(src))
	trimmed := strings.TrimLeft(val, " ")
	cut := len(val) - len(trimmed)
	if cut == 0 {
		return
	}
	if cut >= t.Segment.Len() {
		para.RemoveChild(para, t)
		return
	}
	t.Segment = t.Segment.WithStart(t.Segment.Start + cut)
}
