package notifications

import (
	"context"
	"time"
)

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// Mailer delivers a notification copy by email. Implementations must
// be safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}
