package markdown

// Ticket is the intermediate representation between the tracker and a
// markdown file on disk.
type Ticket struct {
	Key      string
	Title    string
	Status   string
	Type     string
	Priority string
	Labels   []string
	Assignee string
	Reporter string
	URL      string
	Updated  string
	Synced   string
	Body     string // markdown description
	Comments []TicketComment
}

// TicketComment represents a single comment in the intermediate format.
type TicketComment struct {
	Author string
	Date   string
	Body   string
}
