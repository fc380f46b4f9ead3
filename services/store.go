package services

import (
	"context"
	"time"

	"wya-server/models"
)

// UserStore persists user documents keyed by external identity id.
//
// Lookup and mutation methods return errors.ErrNotFound when no record
// matches. Block and Delete must be atomic across every document they touch.
type UserStore interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, externalID string) (models.User, error)
	// FindByPhone returns the first record with the phone number.
	FindByPhone(ctx context.Context, phone string) (models.User, error)
	ListInactiveSince(ctx context.Context, cutoff time.Time) ([]models.User, error)

	// CreateUser returns the store-assigned id. Duplicate external ids yield errors.ErrConflict.
	CreateUser(ctx context.Context, user models.User) (string, error)
	UpdateLocation(ctx context.Context, externalID string, lat, lon float64, at time.Time) error
	// UpdateFields sets top-level fields on one document.
	UpdateFields(ctx context.Context, externalID string, fields map[string]any) error
	// Block adds blockedID to blocker.blocked and blockerID to blocked.blocked_by together.
	Block(ctx context.Context, blockerID, blockedID string) error
	// DeleteUser removes the document and every reference to it from other users' block lists.
	DeleteUser(ctx context.Context, externalID string) error
}

// NotificationStore is the notification log.
type NotificationStore interface {
	// CreateOnce inserts n unless a record with the same (UserID, Nonce) exists.
	// created is false when the pair was already present.
	CreateOnce(ctx context.Context, n models.Notification) (created bool, err error)
}

type ReportStore interface {
	CreateReport(ctx context.Context, r models.Report) (string, error)
}

// Field names shared by the store implementations for UpdateFields.
const (
	FieldShowLocation  = "show_location"
	FieldShowCity      = "show_city"
	FieldAvatar        = "avatar"
	FieldExpoPushToken = "expo_push_token"
)
