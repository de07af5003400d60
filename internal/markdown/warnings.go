package markdown

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark/parser"
)

// warningsKey carries the shared warning list through the goldmark parse so
// AST transformers can report problems without aborting the conversion.
var warningsKey = parser.NewContextKey()

func addWarning(pc parser.Context, format string, args ...any) {
	if pc == nil {
		return
	}
	list, _ := pc.Get(warningsKey).(*[]string)
	if list == nil {
		return
	}
	*list = append(*list, fmt.Sprintf(format, args...))
}

var bareLinkTextRe = regexp.MustCompile(`\[([^\]\[]*)\]`)

// lintMarkdown flags markdown constructs that would silently lose meaning
// when converted, before parsing starts. It never rejects input; the parser
// still produces the best document it can.
func lintMarkdown(input string) []string {
	var warnings []string
	inFence := false
	for i, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		num := i + 1

		if strings.Count(line, "**")%2 != 0 {
			warnings = append(warnings, fmt.Sprintf("line %d: unclosed bold marker '**'", num))
		}
		if strings.Count(line, "`")%2 != 0 {
			warnings = append(warnings, fmt.Sprintf("line %d: unclosed inline code marker '`'", num))
		}
		warnings = append(warnings, lintBareLinks(line, num)...)

		if strings.HasPrefix(trimmed, "---") && strings.Trim(trimmed, "-") != "" {
			warnings = append(warnings, fmt.Sprintf("line %d: text after '---' is not a horizontal rule", num))
		}
	}
	return warnings
}

// lintBareLinks warns about [text] with no (url) following it. Checkbox,
// alert, decision, status and date tags all share the bracket shape and are
// deliberately excluded.
func lintBareLinks(line string, num int) []string {
	var warnings []string
	for _, loc := range bareLinkTextRe.FindAllStringSubmatchIndex(line, -1) {
		inner := line[loc[2]:loc[3]]
		if isTagShape(inner) {
			continue
		}
		if loc[1] < len(line) && line[loc[1]] == '(' {
			continue
		}
		if loc[0] > 0 && line[loc[0]-1] == '!' {
			continue
		}
		warnings = append(warnings,
			fmt.Sprintf("line %d: link text [%s] has no (url) target", num, inner))
	}
	return warnings
}

func isTagShape(inner string) bool {
	switch inner {
	case "", " ", "x", "X", "date":
		return true
	}
	if strings.HasPrefix(inner, "!") {
		return true
	}
	if strings.HasPrefix(inner, "decision:") || strings.HasPrefix(inner, "status:") {
		return true
	}
	return false
}
