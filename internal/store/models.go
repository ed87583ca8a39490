package store

import "time"

// Activity is one mutation performed from this client.
type Activity struct {
	ID        int64
	Op        string
	ArticleID string
	Title     string
	OK        bool
	Detail    string
	At        time.Time
}

const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpUpload = "upload"
)
