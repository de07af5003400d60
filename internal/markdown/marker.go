package markdown

import (
	"regexp"
	"strings"
)

// This file is the codec for the custom inline marker syntax layered on top
// of CommonMark: mention links, decision markers, alert tags, status chips
// and date chips. Everything here is a pure function over strings; both the
// renderer and the parser share it.

const mentionPathSegment = "/jira/people/"

var (
	mentionHrefRe = regexp.MustCompile(`/jira/people/([^/]+)$`)

	// Canonical decision marker: `[decision:d]`, `[decision:a]`, `[decision:u]`.
	decisionMarkerRe = regexp.MustCompile(`^\[decision:([dau])\]\s*`)
	// Near-miss shape used for warning on invalid state letters.
	decisionAnyRe = regexp.MustCompile(`^\[decision:([^\]]*)\]`)

	// GitHub alert tag at the start of a blockquote paragraph.
	alertMarkerRe = regexp.MustCompile(`(?i)^\[!(NOTE|TIP|IMPORTANT|WARNING|CAUTION)\]\s*`)

	// Status chip tag; render-only, detected during parsing just to warn.
	statusTagRe = regexp.MustCompile(`^\[status:[nrbgypt]\]`)
)

// EncodeMention builds the markdown form of a user mention. With a base URL
// it is a link whose path encodes the account ID; without one there is
// nothing to link to and the mention degrades to plain @Name text.
func EncodeMention(displayName, accountID, baseURL string) string {
	name := strings.TrimPrefix(displayName, "@")
	if baseURL == "" || accountID == "" {
		return "@" + name
	}
	return "[@" + name + "](" + strings.TrimRight(baseURL, "/") + mentionPathSegment + accountID + ")"
}

// DecodeMention extracts the account ID from a mention-shaped href. It
// returns "" when the href does not match, which callers treat as "this is
// an ordinary hyperlink".
func DecodeMention(href string) string {
	m := mentionHrefRe.FindStringSubmatch(href)
	if m == nil {
		return ""
	}
	return m[1]
}

// decisionLabels maps marker state letters to display labels.
var decisionLabels = map[string]string{
	"d": "DECIDED",
	"a": "ACKNOWLEDGED",
	"u": "UP FOR DISCUSSION",
}

// decisionStates maps the ADF decisionItem state attribute to marker letters.
var decisionStates = map[string]string{
	"DECIDED":           "d",
	"ACKNOWLEDGED":      "a",
	"UP_FOR_DISCUSSION": "u",
}

// DecisionLabel returns the display label for a decision state letter.
// Unknown letters fall back to DECIDED, mirroring the server default.
func DecisionLabel(code string) string {
	if label, ok := decisionLabels[code]; ok {
		return label
	}
	return decisionLabels["d"]
}

// DecisionState is the inverse of DecisionLabel: it maps a display label
// back to the marker letter. The second return is false for non-labels.
func DecisionState(label string) (string, bool) {
	for code, l := range decisionLabels {
		if l == label {
			return code, true
		}
	}
	return "", false
}

// decisionStateCode maps an ADF decisionItem state attr value to a marker
// letter, defaulting to "d".
func decisionStateCode(state string) string {
	if code, ok := decisionStates[state]; ok {
		return code
	}
	return "d"
}

// Panel types and alert tags do not line up one-to-one by name: the server's
// "note" panel is closer to GitHub's IMPORTANT than to NOTE, and "info" is
// the plain NOTE. These tables pin the mapping in both directions.
var panelToAlert = map[string]string{
	"info":    "NOTE",
	"success": "TIP",
	"note":    "IMPORTANT",
	"warning": "WARNING",
	"error":   "CAUTION",
}

var alertToPanel = map[string]string{
	"NOTE":      "info",
	"TIP":       "success",
	"IMPORTANT": "note",
	"WARNING":   "warning",
	"CAUTION":   "error",
}

// AlertForPanel maps an ADF panelType to the GitHub alert tag used in
// markdown. Unknown panel types map to NOTE.
func AlertForPanel(panelType string) string {
	if tag, ok := panelToAlert[panelType]; ok {
		return tag
	}
	return "NOTE"
}

// PanelForAlert maps an alert tag (any case) back to an ADF panelType.
func PanelForAlert(tag string) string {
	if pt, ok := alertToPanel[strings.ToUpper(tag)]; ok {
		return pt
	}
	return "info"
}

// AlertLabel returns the human label synthesized for an alert tag:
// WARNING -> Warning, NOTE -> Note, and so on.
func AlertLabel(tag string) string {
	tag = strings.ToUpper(tag)
	if len(tag) == 0 {
		return ""
	}
	return tag[:1] + strings.ToLower(tag[1:])
}

// statusColorCodes maps ADF status lozenge colors to single-letter hints
// carried inside the status chip tag.
var statusColorCodes = map[string]string{
	"neutral": "n",
	"red":     "r",
	"blue":    "b",
	"green":   "g",
	"yellow":  "y",
	"purple":  "p",
	"teal":    "t",
}

// statusColorCode returns the chip color letter for an ADF status color,
// defaulting to neutral.
func statusColorCode(color string) string {
	if code, ok := statusColorCodes[color]; ok {
		return code
	}
	return "n"
}

// statusTag builds the render-only status chip, backtick-wrapped so the
// bracket syntax survives any markdown reprocessing.
func statusTag(text, color string) string {
	return "`[status:" + statusColorCode(color) + "]" + text + "`"
}

// dateTag builds the date chip for an already-formatted YYYY-MM-DD string.
func dateTag(date string) string {
	return "`[date]" + date + "`"
}

// decisionTag builds the inline-code decision marker for a state letter.
func decisionTag(code string) string {
	return "`[decision:" + code + "]`"
}
