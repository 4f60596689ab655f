package notifications

import (
	"context"
	"log/slog"
)

type Service struct {
	Store  *Store
	Mailer Mailer
	From   string
}

func NewService(store *Store, mailer Mailer, from string) *Service {
	return &Service{Store: store, Mailer: mailer, From: from}
}

// Notify records an in-app notification and mirrors it by email.
// Delivery is best effort: workflow actions never fail because a
// notification could not be stored or sent.
func (s *Service) Notify(ctx context.Context, userID, title, body string) {
	if _, err := s.Store.Create(ctx, userID, title, body); err != nil {
		slog.Warn("store notification failed", "user", userID, "err", err)
	}
	if s.Mailer == nil {
		return
	}
	email, err := s.Store.UserEmail(ctx, userID)
	if err != nil {
		slog.Warn("resolve notification email failed", "user", userID, "err", err)
		return
	}
	if err := s.Mailer.Send(ctx, s.From, email, title, body); err != nil {
		slog.Warn("send notification email failed", "user", userID, "err", err)
	}
}

func (s *Service) List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]Notification, error) {
	return s.Store.ListForUser(ctx, userID, unreadOnly, limit, offset)
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.Store.UnreadCount(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	return s.Store.MarkRead(ctx, userID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	return s.Store.MarkAllRead(ctx, userID)
}
