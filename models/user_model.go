package models

import (
	"slices"
	"time"
)

type User struct {
	ID                 string     `json:"id" bson:"_id,omitempty"`
	ExternalIdentityID string     `json:"external_identity_id" bson:"external_identity_id"`
	FirstName          string     `json:"first_name" bson:"first_name"`
	LastName           string     `json:"last_name" bson:"last_name"`
	Email              string     `json:"email" bson:"email"`
	PhoneNumber        string     `json:"phone_number" bson:"phone_number"`
	Latitude           *float64   `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude          *float64   `json:"longitude,omitempty" bson:"longitude,omitempty"`
	LastUpdated        *time.Time `json:"last_updated,omitempty" bson:"last_updated,omitempty"`
	ShowLocation       bool       `json:"show_location" bson:"show_location"`
	ShowCity           bool       `json:"show_city" bson:"show_city"`
	Avatar             Avatar     `json:"avatar,omitempty" bson:"avatar,omitempty"`
	Blocked            []string   `json:"blocked" bson:"blocked"`
	BlockedBy          []string   `json:"blocked_by" bson:"blocked_by"`
	ExpoPushToken      string     `json:"expo_push_token,omitempty" bson:"expo_push_token,omitempty"`
}

// HasLocation reports whether the user has reported at least one position.
func (u *User) HasLocation() bool {
	return u.Latitude != nil && u.Longitude != nil
}

func (u *User) HasBlocked(externalID string) bool {
	return slices.Contains(u.Blocked, externalID)
}

func (u *User) IsBlockedBy(externalID string) bool {
	return slices.Contains(u.BlockedBy, externalID)
}

// Avatar names one of the bundled marker images.
type Avatar string

const (
	AvatarBluey  Avatar = "bluey"
	AvatarCatto  Avatar = "catto"
	AvatarGreeny Avatar = "greeny"
	AvatarMrFox  Avatar = "mrfox"
	AvatarPorky  Avatar = "porky"
)

var Avatars = []Avatar{AvatarBluey, AvatarCatto, AvatarGreeny, AvatarMrFox, AvatarPorky}

func (a Avatar) Valid() bool {
	return slices.Contains(Avatars, a)
}
