package models

import "time"

// TimestampFormat is the ISO-8601 layout used for post timestamps
// (UTC, millisecond precision).
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Post represents a blog post stored as one directory under the posts root
type Post struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	Email      string `json:"email"`
	Timestamp  string `json:"timestamp"`
	Content    string `json:"content"`
	FontFamily string `json:"fontFamily,omitempty"`
	FontSize   string `json:"fontSize,omitempty"`
}

// PostInput carries the client-supplied fields for a create or update
type PostInput struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Author     string `json:"author"`
	Email      string `json:"email"`
	FontFamily string `json:"fontFamily,omitempty"`
	FontSize   string `json:"fontSize,omitempty"`
}

// Time parses the post timestamp. A zero time is returned for malformed values.
func (p *Post) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, p.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// NewTimestamp formats t the way post metadata stores it
func NewTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// ValidSortFields defines the orderings the listing endpoint accepts
var ValidSortFields = map[string]bool{
	"timestamp": true,
	"title":     true,
}
