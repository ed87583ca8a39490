package apiclient

import (
	"strings"

	"github.com/blogdesk/blogdesk/internal/article"
)

// envelope is the shape every endpoint answers with. Status is a pointer so
// a missing field can be told apart from an empty one.
type envelope struct {
	Status   *string           `json:"status"`
	Message  string            `json:"mensaje,omitempty"`
	Article  *article.Article  `json:"articulo,omitempty"`
	Articles []article.Article `json:"consulta,omitempty"`
}

// ok compares the success marker case-insensitively; the service answers
// "success" on some endpoints and "Success" on others.
func (e *envelope) ok() bool {
	return e.Status != nil && strings.EqualFold(strings.TrimSpace(*e.Status), "success")
}

// failure turns a non-success envelope into the message shown to users.
func (e *envelope) failure(fallback string) string {
	if e.Status == nil {
		return "malformed response: missing status"
	}
	if e.Message != "" {
		return e.Message
	}
	return fallback
}
