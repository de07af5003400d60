package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dt-pm-tools/jiramd/internal/jira"
)

const sampleTicketFile = `---
# READ-ONLY metadata pulled from the tracker. Changes here are NOT pushed back.
# Only the document body (below the frontmatter) is synced on push.
key: PROJ-42
title: Fix the flux capacitor
status: In Progress
type: Bug
priority: High
labels: [backend, urgent]
assignee: bob@example.com
reporter: carol@example.com
url: https://example.atlassian.net/browse/PROJ-42
updated: 2024-04-01
synced: 2024-04-02T10:00:00Z
---

# PROJ-42: Fix the flux capacitor

## Description

It stopped fluxing. **Needs** attention.

## Comments

### bob@example.com - 2024-03-30

Looking into it.

### carol@example.com - 2024-03-31

Any update?
`

func TestUnmarshalTicket(t *testing.T) {
	ticket, err := Unmarshal(sampleTicketFile)
	require.NoError(t, err)

	assert.Equal(t, "PROJ-42", ticket.Key)
	assert.Equal(t, "Fix the flux capacitor", ticket.Title)
	assert.Equal(t, "In Progress", ticket.Status)
	assert.Equal(t, "Bug", ticket.Type)
	assert.Equal(t, "High", ticket.Priority)
	assert.Equal(t, []string{"backend", "urgent"}, ticket.Labels)
	assert.Equal(t, "bob@example.com", ticket.Assignee)
	assert.Equal(t, "2024-04-01", ticket.Updated)
	assert.Equal(t, "It stopped fluxing. **Needs** attention.", ticket.Body)

	require.Len(t, ticket.Comments, 2)
	assert.Equal(t, "bob@example.com", ticket.Comments[0].Author)
	assert.Equal(t, "2024-03-30", ticket.Comments[0].Date)
	assert.Equal(t, "Looking into it.", ticket.Comments[0].Body)
	assert.Equal(t, "Any update?", ticket.Comments[1].Body)
}

func TestUnmarshalRequiresFrontmatter(t *testing.T) {
	_, err := Unmarshal("just some markdown")
	assert.Error(t, err)

	_, err = Unmarshal("---\nkey: X-1\nno closing fence")
	assert.Error(t, err)

	_, err = Unmarshal("---\ntitle: missing key\n---\n\nbody")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key")
}

func TestUnmarshalWithoutHeadings(t *testing.T) {
	ticket, err := Unmarshal("---\nkey: X-1\n---\n\nraw body text")
	require.NoError(t, err)
	assert.Equal(t, "raw body text", ticket.Body)
	assert.Empty(t, ticket.Comments)
}

func TestToUpdatePayload(t *testing.T) {
	ticket := &Ticket{
		Key:    "PROJ-42",
		Title:  "Fix the flux capacitor",
		Labels: []string{"backend"},
		Body:   "All **fixed** now",
	}

	payload, warnings, err := ToUpdatePayload(ticket)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "Fix the flux capacitor", payload.Fields.Summary)
	assert.Equal(t, []string{"backend"}, payload.Fields.Labels)

	require.NotNil(t, payload.Fields.Description)
	assert.Equal(t, jira.NodeDoc, payload.Fields.Description.Type)
	assert.Equal(t, 1, payload.Fields.Description.Version)
}

func TestToUpdatePayloadSurfacesWarnings(t *testing.T) {
	ticket := &Ticket{Key: "X-1", Body: "broken **bold"}

	payload, warnings, err := ToUpdatePayload(ticket)
	require.NoError(t, err)
	require.NotNil(t, payload.Fields.Description)
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "unclosed bold")
}

func TestMarshalUnmarshalCycle(t *testing.T) {
	issue := &jira.Issue{
		Key: "PROJ-7",
		Fields: jira.Fields{
			Summary:   "Tighten the widget",
			Status:    jira.Status{Name: "To Do"},
			IssueType: jira.IssueType{Name: "Task"},
			Labels:    []string{"widgets"},
			Description: &jira.ADFNode{
				Type: jira.NodeDoc, Version: 1,
				Content: []jira.ADFNode{
					{Type: jira.NodeParagraph, Content: []jira.ADFNode{
						{Type: jira.NodeText, Text: "Needs a quarter turn."},
					}},
				},
			},
		},
	}

	md, err := Marshal(issue, "https://example.atlassian.net")
	require.NoError(t, err)
	assert.Contains(t, md, "key: PROJ-7\n")
	assert.Contains(t, md, "# PROJ-7: Tighten the widget\n")
	assert.Contains(t, md, "## Description\n")

	ticket, err := Unmarshal(md)
	require.NoError(t, err)
	assert.Equal(t, "PROJ-7", ticket.Key)
	assert.Equal(t, "Tighten the widget", ticket.Title)
	assert.Equal(t, []string{"widgets"}, ticket.Labels)
	assert.Equal(t, "Needs a quarter turn.", ticket.Body)
}

func TestMarshalWithoutDescription(t *testing.T) {
	issue := &jira.Issue{
		Key: "PROJ-8",
		Fields: jira.Fields{
			Summary:   "Empty one",
			Status:    jira.Status{Name: "To Do"},
			IssueType: jira.IssueType{Name: "Task"},
		},
	}
	md, err := Marshal(issue, "https://example.atlassian.net")
	require.NoError(t, err)
	assert.Contains(t, md, "(No description)")
	assert.Contains(t, md, "labels: []\n")

	// The placeholder is not a real description and must not survive a
	// read back.
	ticket, err := Unmarshal(md)
	require.NoError(t, err)
	assert.Empty(t, ticket.Body)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2024-04-01", FormatDate("2024-04-01T12:30:00.000+0200"))
	assert.Equal(t, "2024-04-01", FormatDate("2024-04-01T12:30:00Z"))
	// Unparseable input passes through untouched.
	assert.Equal(t, "yesterday", FormatDate("yesterday"))
}
