package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"wya-server/models"
)

// CanSee reports whether viewer may see candidate's location and contact details.
// The candidate must have opted in and neither side may have blocked the other.
func CanSee(viewer, candidate *models.User) bool {
	if !candidate.ShowLocation {
		return false
	}
	if candidate.HasBlocked(viewer.ExternalIdentityID) || candidate.IsBlockedBy(viewer.ExternalIdentityID) {
		return false
	}
	if viewer.HasBlocked(candidate.ExternalIdentityID) || viewer.IsBlockedBy(candidate.ExternalIdentityID) {
		return false
	}
	return true
}

// CanSeeCity gates the coarse city text on top of CanSee.
func CanSeeCity(viewer, candidate *models.User) bool {
	return CanSee(viewer, candidate) && candidate.ShowCity
}

// LiveLocation is the viewer's current fix as held by the client.
type LiveLocation struct {
	Latitude  float64
	Longitude float64
}

// VisibleUser is what one user is allowed to learn about another.
type VisibleUser struct {
	ExternalIdentityID string        `json:"external_identity_id"`
	FirstName          string        `json:"first_name"`
	LastName           string        `json:"last_name"`
	Email              string        `json:"email,omitempty"`
	PhoneNumber        string        `json:"phone_number,omitempty"`
	Avatar             models.Avatar `json:"avatar,omitempty"`
	Latitude           *float64      `json:"latitude,omitempty"`
	Longitude          *float64      `json:"longitude,omitempty"`
	LastUpdated        *time.Time    `json:"last_updated,omitempty"`
	City               string        `json:"city,omitempty"`
	Distance           float64       `json:"distance,omitempty"`
	Self               bool          `json:"self"`

	showCity bool
}

// VisibleTo filters users down to what viewer may see. The viewer always comes
// first, using live in place of the stored position when given.
func VisibleTo(viewer models.User, users []models.User, live *LiveLocation) []VisibleUser {
	self := toVisibleUser(&viewer)
	self.Self = true
	self.showCity = true
	if live != nil {
		lat, lon := live.Latitude, live.Longitude
		self.Latitude, self.Longitude = &lat, &lon
	}

	out := []VisibleUser{self}
	for i := range users {
		candidate := &users[i]
		if candidate.ExternalIdentityID == viewer.ExternalIdentityID {
			continue
		}
		if !CanSee(&viewer, candidate) {
			continue
		}
		v := toVisibleUser(candidate)
		v.showCity = candidate.ShowCity
		out = append(out, v)
	}
	return out
}

func toVisibleUser(u *models.User) VisibleUser {
	return VisibleUser{
		ExternalIdentityID: u.ExternalIdentityID,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Email:              u.Email,
		PhoneNumber:        u.PhoneNumber,
		Avatar:             u.Avatar,
		Latitude:           u.Latitude,
		Longitude:          u.Longitude,
		LastUpdated:        u.LastUpdated,
	}
}

// VisibilityService loads users and applies VisibleTo, filling in city text.
type VisibilityService struct {
	users  *UserService
	cities CityResolver
	logger *zap.Logger
}

// NewVisibilityService accepts a nil resolver, in which case city text is never set.
func NewVisibilityService(users *UserService, cities CityResolver, logger *zap.Logger) *VisibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisibilityService{users: users, cities: cities, logger: logger}
}

func (s *VisibilityService) VisibleUsers(ctx context.Context, viewerID string, live *LiveLocation) ([]VisibleUser, error) {
	viewer, err := s.users.GetUser(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	all, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	visible := VisibleTo(viewer, all, live)
	s.fillCities(ctx, visible)
	return visible, nil
}

func (s *VisibilityService) fillCities(ctx context.Context, visible []VisibleUser) {
	if s.cities == nil {
		return
	}
	for i := range visible {
		v := &visible[i]
		if !v.showCity || v.Latitude == nil || v.Longitude == nil {
			continue
		}
		city, err := s.cities.City(ctx, *v.Latitude, *v.Longitude)
		if err != nil {
			s.logger.Warn("city lookup failed", zap.String("external_id", v.ExternalIdentityID), zap.Error(err))
			continue
		}
		v.City = city
	}
}
