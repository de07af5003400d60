package markdown

import (
	"fmt"
	"strings"
	"time"

	"github.com/dt-pm-tools/jiramd/internal/jira"
)

// Marshal converts a tracker issue into a markdown string with YAML
// frontmatter. The frontmatter is read-only metadata for the reader; on push
// only the body below it is synced back.
func Marshal(issue *jira.Issue, baseURL string) (string, error) {
	if issue == nil {
		return "", fmt.Errorf("nil issue")
	}
	baseURL = strings.TrimRight(baseURL, "/")

	var b strings.Builder

	b.WriteString("---\n")
	b.WriteString("# READ-ONLY metadata pulled from the tracker. Changes here are NOT pushed back.\n")
	b.WriteString("# Only the document body (below the frontmatter) is synced on push.\n")
	b.WriteString(fmt.Sprintf("key: %s\n", issue.Key))
	b.WriteString(fmt.Sprintf("title: %s\n", issue.Fields.Summary))
	b.WriteString(fmt.Sprintf("status: %s\n", issue.Fields.Status.Name))
	if issue.Fields.Status.StatusCategory != nil {
		b.WriteString(fmt.Sprintf("statusCategory: %s\n", issue.Fields.Status.StatusCategory.Name))
	}
	b.WriteString(fmt.Sprintf("type: %s\n", issue.Fields.IssueType.Name))
	if issue.Fields.Priority.Name != "" {
		b.WriteString(fmt.Sprintf("priority: %s\n", issue.Fields.Priority.Name))
	}
	if len(issue.Fields.Labels) > 0 {
		b.WriteString(fmt.Sprintf("labels: [%s]\n", strings.Join(issue.Fields.Labels, ", ")))
	} else {
		b.WriteString("labels: []\n")
	}
	if issue.Fields.Assignee != nil {
		b.WriteString(fmt.Sprintf("assignee: %s\n", userHandle(issue.Fields.Assignee)))
	}
	if issue.Fields.Reporter != nil {
		b.WriteString(fmt.Sprintf("reporter: %s\n", userHandle(issue.Fields.Reporter)))
	}
	b.WriteString(fmt.Sprintf("url: %s/browse/%s\n", baseURL, issue.Key))
	if issue.Fields.Updated != "" {
		b.WriteString(fmt.Sprintf("updated: %s\n", FormatDate(issue.Fields.Updated)))
	}
	b.WriteString(fmt.Sprintf("synced: %s\n", time.Now().UTC().Format(time.RFC3339)))
	b.WriteString("---\n\n")

	b.WriteString(fmt.Sprintf("# %s: %s\n\n", issue.Key, issue.Fields.Summary))

	b.WriteString("## Description\n\n")
	if issue.Fields.Description != nil {
		writeBlock(&b, Render(issue.Fields.Description, baseURL))
	} else {
		b.WriteString("(No description)\n")
	}
	b.WriteString("\n")

	if issue.Fields.Comment != nil && len(issue.Fields.Comment.Comments) > 0 {
		b.WriteString("## Comments\n\n")
		for _, c := range issue.Fields.Comment.Comments {
			author := c.Author.EmailAddress
			if author == "" {
				author = c.Author.DisplayName
			}
			b.WriteString(fmt.Sprintf("### %s - %s\n\n", author, FormatDate(c.Created)))
			if c.Body != nil {
				writeBlock(&b, Render(c.Body, baseURL))
			}
			b.WriteString("\n")
		}
	}

	return b.String(), nil
}

func writeBlock(b *strings.Builder, body string) {
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
}

func userHandle(u *jira.User) string {
	if u.EmailAddress != "" {
		return u.EmailAddress
	}
	return u.DisplayName
}

// FormatDate reduces the tracker's timestamp formats to a plain date.
func FormatDate(isoDate string) string {
	for _, layout := range []string{
		"2006-01-02T15:04:05.000-0700",
		"2006-01-02T15:04:05.000Z0700",
		time.RFC3339,
	} {
		if t, err := time.Parse(layout, isoDate); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return isoDate
}
