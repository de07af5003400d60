package jira

// Issue represents a work item from the tracker REST API v3.
type Issue struct {
	Key    string `json:"key"`
	Fields Fields `json:"fields"`
}

// Fields contains the issue fields we care about.
type Fields struct {
	Summary     string    `json:"summary"`
	Status      Status    `json:"status"`
	IssueType   IssueType `json:"issuetype"`
	Priority    Priority  `json:"priority,omitempty"`
	Labels      []string  `json:"labels,omitempty"`
	Assignee    *User     `json:"assignee,omitempty"`
	Reporter    *User     `json:"reporter,omitempty"`
	Description *ADFNode  `json:"description,omitempty"`
	Comment     *Comments `json:"comment,omitempty"`
	Updated     string    `json:"updated,omitempty"`
}

// Status represents an issue status.
type Status struct {
	Name           string          `json:"name"`
	StatusCategory *StatusCategory `json:"statusCategory,omitempty"`
}

// StatusCategory represents the high-level category of a status.
type StatusCategory struct {
	Key  string `json:"key"`  // "new", "indeterminate", "done"
	Name string `json:"name"` // "To Do", "In Progress", "Done"
}

// IssueType represents an issue type.
type IssueType struct {
	Name string `json:"name"`
}

// Priority represents an issue priority.
type Priority struct {
	Name string `json:"name"`
}

// User represents a tracker user account.
type User struct {
	AccountID    string `json:"accountId,omitempty"`
	EmailAddress string `json:"emailAddress"`
	DisplayName  string `json:"displayName"`
}

// Comments wraps the comments array from the API.
type Comments struct {
	Comments []Comment `json:"comments"`
}

// Comment represents a single issue comment.
type Comment struct {
	Author  User     `json:"author"`
	Body    *ADFNode `json:"body"`
	Created string   `json:"created"`
}

// NodeType identifies an ADF node kind. The set below is closed over the
// node types this client understands; anything else falls through the
// renderer's and parser's explicit default arms and is skipped without
// error, so unknown server-side extensions degrade instead of failing.
type NodeType string

const (
	NodeDoc          NodeType = "doc"
	NodeParagraph    NodeType = "paragraph"
	NodeHeading      NodeType = "heading"
	NodeBulletList   NodeType = "bulletList"
	NodeOrderedList  NodeType = "orderedList"
	NodeListItem     NodeType = "listItem"
	NodeTaskList     NodeType = "taskList"
	NodeTaskItem     NodeType = "taskItem"
	NodeTable        NodeType = "table"
	NodeTableRow     NodeType = "tableRow"
	NodeTableCell    NodeType = "tableCell"
	NodeTableHeader  NodeType = "tableHeader"
	NodeCodeBlock    NodeType = "codeBlock"
	NodeBlockquote   NodeType = "blockquote"
	NodePanel        NodeType = "panel"
	NodeRule         NodeType = "rule"
	NodeText         NodeType = "text"
	NodeHardBreak    NodeType = "hardBreak"
	NodeMention      NodeType = "mention"
	NodeEmoji        NodeType = "emoji"
	NodeDate         NodeType = "date"
	NodeStatus       NodeType = "status"
	NodeInlineCard   NodeType = "inlineCard"
	NodeMediaSingle  NodeType = "mediaSingle"
	NodeMediaGroup   NodeType = "mediaGroup"
	NodeMedia        NodeType = "media"
	NodeDecisionList NodeType = "decisionList"
	NodeDecisionItem NodeType = "decisionItem"
)

// MarkType identifies an inline formatting mark.
type MarkType string

const (
	MarkStrong    MarkType = "strong"
	MarkEm        MarkType = "em"
	MarkStrike    MarkType = "strike"
	MarkCode      MarkType = "code"
	MarkLink      MarkType = "link"
	MarkUnderline MarkType = "underline"
)

// ADFNode represents a node in the Atlassian Document Format. Version is
// only set on the root "doc" node, where the server requires version 1.
type ADFNode struct {
	Type    NodeType       `json:"type"`
	Version int            `json:"version,omitempty"`
	Content []ADFNode      `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Marks   []ADFMark      `json:"marks,omitempty"`
}

// ADFMark represents an inline formatting mark in ADF.
type ADFMark struct {
	Type  MarkType       `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// StringAttr returns a string attribute, or fallback when the attribute is
// missing or not a string. ADF attrs arrive as untyped JSON.
func (n *ADFNode) StringAttr(key, fallback string) string {
	if v, ok := n.Attrs[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

// IntAttr returns an integer attribute, tolerating the float64 values
// encoding/json produces for JSON numbers.
func (n *ADFNode) IntAttr(key string, fallback int) int {
	switch v := n.Attrs[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}

// HasMark reports whether the node carries a mark of the given type.
func (n *ADFNode) HasMark(t MarkType) bool {
	for _, m := range n.Marks {
		if m.Type == t {
			return true
		}
	}
	return false
}

// UpdatePayload is the body for PUT /rest/api/3/issue/{key}.
type UpdatePayload struct {
	Fields     UpdateFields `json:"fields"`
	Transition *Transition  `json:"transition,omitempty"`
}

// UpdateFields contains the fields that can be updated.
type UpdateFields struct {
	Summary     string   `json:"summary,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	Description *ADFNode `json:"description,omitempty"`
}

// CommentPayload is the body for POST /rest/api/3/issue/{key}/comment.
type CommentPayload struct {
	Body *ADFNode `json:"body"`
}

// Transition is used to change issue status.
type Transition struct {
	ID string `json:"id"`
}

// TransitionPayload is the body for POST /rest/api/3/issue/{key}/transitions.
type TransitionPayload struct {
	Transition Transition `json:"transition"`
}

// TransitionsResponse is the response from GET transitions.
type TransitionsResponse struct {
	Transitions []TransitionInfo `json:"transitions"`
}

// TransitionInfo describes an available transition.
type TransitionInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	To   Status `json:"to"`
}
