package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"wya-server/models"
	"wya-server/utils/errors"
)

// MemoryStore keeps everything in process. Used by tests and STORE=memory.
type MemoryStore struct {
	mu            sync.Mutex
	users         []*models.User
	notifications []models.Notification
	reports       []models.Report
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (s *MemoryStore) GetUser(ctx context.Context, externalID string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.find(externalID)
	if u == nil {
		return models.User{}, errors.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *MemoryStore) FindByPhone(ctx context.Context, phone string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.PhoneNumber == phone {
			return cloneUser(u), nil
		}
	}
	return models.User{}, errors.ErrNotFound
}

func (s *MemoryStore) ListInactiveSince(ctx context.Context, cutoff time.Time) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		if u.LastUpdated != nil && u.LastUpdated.Before(cutoff) {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, user models.User) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.find(user.ExternalIdentityID) != nil {
		return "", errors.WithMessage(errors.ErrConflict, "User already exists")
	}
	u := cloneUser(&user)
	u.ID = primitive.NewObjectID().Hex()
	s.users = append(s.users, &u)
	return u.ID, nil
}

func (s *MemoryStore) UpdateLocation(ctx context.Context, externalID string, lat, lon float64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.find(externalID)
	if u == nil {
		return errors.ErrNotFound
	}
	u.Latitude, u.Longitude, u.LastUpdated = &lat, &lon, &at
	return nil
}

func (s *MemoryStore) UpdateFields(ctx context.Context, externalID string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.find(externalID)
	if u == nil {
		return errors.ErrNotFound
	}
	next := cloneUser(u)
	for key, value := range fields {
		var ok bool
		switch key {
		case FieldShowLocation:
			next.ShowLocation, ok = value.(bool)
		case FieldShowCity:
			next.ShowCity, ok = value.(bool)
		case FieldAvatar:
			next.Avatar, ok = value.(models.Avatar)
		case FieldExpoPushToken:
			next.ExpoPushToken, ok = value.(string)
		}
		if !ok {
			return fmt.Errorf("memory store: unsupported field %q (%T)", key, value)
		}
	}
	*u = next
	return nil
}

func (s *MemoryStore) Block(ctx context.Context, blockerID, blockedID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	blocker, blocked := s.find(blockerID), s.find(blockedID)
	if blocker == nil || blocked == nil {
		return errors.ErrNotFound
	}
	if !slices.Contains(blocker.Blocked, blockedID) {
		blocker.Blocked = append(blocker.Blocked, blockedID)
	}
	if !slices.Contains(blocked.BlockedBy, blockerID) {
		blocked.BlockedBy = append(blocked.BlockedBy, blockerID)
	}
	return nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, externalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := slices.IndexFunc(s.users, func(u *models.User) bool { return u.ExternalIdentityID == externalID })
	if idx < 0 {
		return errors.ErrNotFound
	}
	s.users = slices.Delete(s.users, idx, idx+1)
	for _, u := range s.users {
		u.Blocked = slices.DeleteFunc(u.Blocked, func(id string) bool { return id == externalID })
		u.BlockedBy = slices.DeleteFunc(u.BlockedBy, func(id string) bool { return id == externalID })
	}
	return nil
}

func (s *MemoryStore) CreateOnce(ctx context.Context, n models.Notification) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.notifications {
		if existing.UserID == n.UserID && existing.Nonce == n.Nonce {
			return false, nil
		}
	}
	n.ID = primitive.NewObjectID().Hex()
	s.notifications = append(s.notifications, n)
	return true, nil
}

// Notifications returns the logged notifications for (userID, nonce).
func (s *MemoryStore) Notifications(userID, nonce string) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.notifications {
		if n.UserID == userID && n.Nonce == nonce {
			out = append(out, n)
		}
	}
	return out
}

func (s *MemoryStore) CreateReport(ctx context.Context, r models.Report) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = primitive.NewObjectID().Hex()
	s.reports = append(s.reports, r)
	return r.ID, nil
}

// Reports returns a copy of every filed report.
func (s *MemoryStore) Reports() []models.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.reports)
}

func (s *MemoryStore) find(externalID string) *models.User {
	for _, u := range s.users {
		if u.ExternalIdentityID == externalID {
			return u
		}
	}
	return nil
}

func cloneUser(u *models.User) models.User {
	c := *u
	c.Blocked = slices.Clone(u.Blocked)
	c.BlockedBy = slices.Clone(u.BlockedBy)
	if u.Latitude != nil {
		lat := *u.Latitude
		c.Latitude = &lat
	}
	if u.Longitude != nil {
		lon := *u.Longitude
		c.Longitude = &lon
	}
	if u.LastUpdated != nil {
		at := *u.LastUpdated
		c.LastUpdated = &at
	}
	return c
}
