package markdown

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dt-pm-tools/jiramd/internal/jira"
)

// frontmatter is the YAML metadata block at the top of a ticket file.
type frontmatter struct {
	Key            string   `yaml:"key"`
	Title          string   `yaml:"title"`
	Status         string   `yaml:"status"`
	StatusCategory string   `yaml:"statusCategory"`
	Type           string   `yaml:"type"`
	Priority       string   `yaml:"priority"`
	Labels         []string `yaml:"labels"`
	Assignee       string   `yaml:"assignee"`
	Reporter       string   `yaml:"reporter"`
	URL            string   `yaml:"url"`
	Updated        string   `yaml:"updated"`
	Synced         string   `yaml:"synced"`
}

// Unmarshal parses a markdown file with YAML frontmatter into a Ticket.
func Unmarshal(content string) (*Ticket, error) {
	fm, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, err
	}

	var meta frontmatter
	if err := yaml.Unmarshal([]byte(fm), &meta); err != nil {
		return nil, fmt.Errorf("parsing frontmatter: %w", err)
	}
	if meta.Key == "" {
		return nil, fmt.Errorf("frontmatter missing required 'key' field")
	}

	body = stripTitleHeading(body)
	desc, comments := splitComments(body)
	desc = strings.TrimSpace(desc)
	if desc == "(No description)" {
		// Placeholder written by Marshal for issues without a description.
		desc = ""
	}

	return &Ticket{
		Key:      meta.Key,
		Title:    meta.Title,
		Status:   meta.Status,
		Type:     meta.Type,
		Priority: meta.Priority,
		Labels:   meta.Labels,
		Assignee: meta.Assignee,
		Reporter: meta.Reporter,
		URL:      meta.URL,
		Updated:  meta.Updated,
		Synced:   meta.Synced,
		Body:     desc,
		Comments: comments,
	}, nil
}

// ToUpdatePayload converts a Ticket into a tracker update payload. The body
// conversion cannot fail; whatever it had to degrade comes back as warnings
// for the caller to show.
func ToUpdatePayload(ticket *Ticket) (*jira.UpdatePayload, []string, error) {
	if ticket == nil {
		return nil, nil, fmt.Errorf("nil ticket")
	}
	adf, warnings := ParseWithWarnings(ticket.Body)

	payload := &jira.UpdatePayload{
		Fields: jira.UpdateFields{
			Summary:     ticket.Title,
			Labels:      ticket.Labels,
			Description: adf,
		},
	}
	return payload, warnings, nil
}

// splitFrontmatter separates YAML frontmatter from the body.
func splitFrontmatter(content string) (string, string, error) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "---") {
		return "", "", fmt.Errorf("no YAML frontmatter found (must start with ---)")
	}

	rest := strings.TrimLeft(content[3:], "\n\r")
	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return "", "", fmt.Errorf("no closing --- for frontmatter")
	}

	fm := rest[:idx]
	body := strings.TrimLeft(rest[idx+4:], "\n\r")
	return fm, body, nil
}

// stripTitleHeading removes the "# KEY: Title" heading from the body.
func stripTitleHeading(body string) string {
	lines := strings.SplitN(body, "\n", 2)
	if len(lines) == 0 || !strings.HasPrefix(strings.TrimSpace(lines[0]), "# ") {
		return body
	}
	if len(lines) > 1 {
		return strings.TrimLeft(lines[1], "\n\r")
	}
	return ""
}

var (
	commentsHeadingRe = regexp.MustCompile(`(?m)^## Comments\s*$`)
	commentHeaderRe   = regexp.MustCompile(`(?m)^### (.+) - (\S+)\s*$`)
)

// splitComments separates the description from the ## Comments section.
func splitComments(body string) (string, []TicketComment) {
	body = stripDescriptionHeading(body)

	loc := commentsHeadingRe.FindStringIndex(body)
	if loc == nil {
		return body, nil
	}
	return body[:loc[0]], parseComments(body[loc[1]:])
}

// stripDescriptionHeading removes "## Description" from the start of the body.
func stripDescriptionHeading(desc string) string {
	trimmed := strings.TrimSpace(desc)
	if !strings.HasPrefix(trimmed, "## Description") {
		return desc
	}
	rest := strings.TrimPrefix(trimmed, "## Description")
	return strings.TrimLeft(rest, "\n\r")
}

// parseComments parses "### author - date" sections into TicketComments.
func parseComments(section string) []TicketComment {
	matches := commentHeaderRe.FindAllStringSubmatchIndex(section, -1)
	if len(matches) == 0 {
		return nil
	}

	var comments []TicketComment
	for i, match := range matches {
		end := len(section)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		comments = append(comments, TicketComment{
			Author: section[match[2]:match[3]],
			Date:   section[match[4]:match[5]],
			Body:   strings.TrimSpace(section[match[1]:end]),
		})
	}
	return comments
}
