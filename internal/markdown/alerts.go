package markdown

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// PanelTypeAttr is set on a blockquote node whose leading [!TAG] marker was
// consumed. The ADF converter turns such blockquotes into panels; the
// terminal preview colors them.
const PanelTypeAttr = "panelType"

// alertTransformer rewrites GitHub-style alert blockquotes in place. A
// blockquote whose first paragraph starts with [!NOTE], [!TIP], [!IMPORTANT],
// [!WARNING] or [!CAUTION] loses the marker, gains a bold label paragraph and
// is tagged with the matching panel type. The surgery is pure node
// manipulation; no raw token offsets are recomputed.
type alertTransformer struct{}

func (alertTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
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
		if !ok || para.Lines().Len() == 0 {
			return ast.WalkContinue, nil
		}

		seg := para.Lines().At(0)
		line := string(seg.Value(src))
		m := alertMarkerRe.FindStringSubmatch(line)
		if m == nil {
			return ast.WalkContinue, nil
		}
		tag := strings.ToUpper(m[1])
		bq.SetAttributeString(PanelTypeAttr, PanelForAlert(tag))

		// Inline segments stop before the newline, so a marker that fills
		// the whole line must not count it.
		stripLeadingBytes(para, len(strings.TrimRight(m[0], "\n")))
		stripRedundantBoldLabel(para, src, AlertLabel(tag))
		if para.FirstChild() == nil {
			bq.RemoveChild(bq, para)
		}
		insertLabelParagraph(bq, AlertLabel(tag))
		return ast.WalkContinue, nil
	})
}

// stripLeadingBytes removes the first n source bytes of a paragraph's inline
// run. The bracket marker parses into plain text nodes with contiguous
// segments, so trimming segment starts is enough.
func stripLeadingBytes(para *ast.Paragraph, n int) {
	for n > 0 {
		t, ok := para.FirstChild().(*ast.Text)
		if !ok {
			return
		}
		if l := t.Segment.Len(); l <= n {
			n -= l
			para.RemoveChild(para, t)
			continue
		}
		t.Segment = t.Segment.WithStart(t.Segment.Start + n)
		return
	}
}

// stripRedundantBoldLabel drops a "**Note**" style prefix that repeats the
// alert label, along with a ":" left dangling after it.
func stripRedundantBoldLabel(para *ast.Paragraph, src []byte, label string) {
	em, ok := para.FirstChild().(*ast.Emphasis)
	if !ok || em.Level != 2 {
		return
	}
	inner := strings.TrimSuffix(strings.TrimSpace(string(em.Text(src))), ":")
	if !strings.EqualFold(inner, label) {
		return
	}
	para.RemoveChild(para, em)
	if t, ok := para.FirstChild().(*ast.Text); ok {
		trimmed := strings.TrimLeft(string(t.Segment.Value(src)), ": ")
		cut := t.Segment.Len() - len(trimmed)
		if cut >= t.Segment.Len() {
			para.RemoveChild(para, t)
		} else if cut > 0 {
			t.Segment = t.Segment.WithStart(t.Segment.Start + cut)
		}
	}
}

// insertLabelParagraph prepends a paragraph holding the bold label, the shape
// the renderer later folds back into the marker form.
func insertLabelParagraph(bq *ast.Blockquote, label string) {
	em := ast.NewEmphasis(2)
	em.AppendChild(em, ast.NewString([]byte(label)))
	para := ast.NewParagraph()
	para.AppendChild(para, em)
	if first := bq.FirstChild(); first != nil {
		bq.InsertBefore(bq, first, para)
	} else {
		bq.AppendChild(bq, para)
	}
}
