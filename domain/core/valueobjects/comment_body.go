package valueobjects

import "strings"

const (
	// AuthorMarker prefixes the first line of an encoded comment body
	AuthorMarker = "**From:**"

	// AnonymousAuthor is used when a body carries no author line
	AnonymousAuthor = "Anonymous"
)

// CommentBody is the decoded form of a remote thread or reply body
type CommentBody struct {
	Author string
	Text   string
}

// EncodeBody renders an author and text in the remote wire format
func EncodeBody(author, text string) string {
	return AuthorMarker + " " + author + "\n\n" + text
}

// DecodeBody parses a remote body. ok is false for an empty body.
func DecodeBody(body string) (CommentBody, bool) {
	if body == "" {
		return CommentBody{}, false
	}

	lines := strings.Split(body, "\n")
	if !strings.HasPrefix(lines[0], AuthorMarker) {
		return CommentBody{Author: AnonymousAuthor, Text: body}, true
	}

	author := strings.TrimSpace(strings.TrimPrefix(lines[0], AuthorMarker))
	var text string
	if len(lines) > 2 {
		// line 2 is the blank separator
		text = strings.TrimSpace(strings.Join(lines[2:], "\n"))
	}
	return CommentBody{Author: author, Text: text}, true
}
