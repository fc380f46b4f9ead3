package services

import (
	"context"
	"errors"
	"testing"

	"wya-server/models"
)

func TestCanSee(t *testing.T) {
	tests := []struct {
		name      string
		viewer    models.User
		candidate models.User
		want      bool
	}{
		{
			name:      "sharing and unblocked",
			viewer:    models.User{ExternalIdentityID: "v"},
			candidate: models.User{ExternalIdentityID: "c", ShowLocation: true},
			want:      true,
		},
		{
			name:      "candidate not sharing",
			viewer:    models.User{ExternalIdentityID: "v"},
			candidate: models.User{ExternalIdentityID: "c"},
			want:      false,
		},
		{
			name:      "not sharing and blocked",
			viewer:    models.User{ExternalIdentityID: "v", Blocked: []string{"c"}},
			candidate: models.User{ExternalIdentityID: "c", BlockedBy: []string{"v"}},
			want:      false,
		},
		{
			name:      "viewer blocked candidate",
			viewer:    models.User{ExternalIdentityID: "v", Blocked: []string{"c"}},
			candidate: models.User{ExternalIdentityID: "c", ShowLocation: true, BlockedBy: []string{"v"}},
			want:      false,
		},
		{
			name:      "candidate blocked viewer",
			viewer:    models.User{ExternalIdentityID: "v", BlockedBy: []string{"c"}},
			candidate: models.User{ExternalIdentityID: "c", ShowLocation: true, Blocked: []string{"v"}},
			want:      false,
		},
		{
			name:      "block involving someone else",
			viewer:    models.User{ExternalIdentityID: "v", Blocked: []string{"x"}},
			candidate: models.User{ExternalIdentityID: "c", ShowLocation: true, BlockedBy: []string{"y"}},
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanSee(&tt.viewer, &tt.candidate); got != tt.want {
				t.Fatalf("CanSee = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanSeeCityRequiresBothFlags(t *testing.T) {
	viewer := models.User{ExternalIdentityID: "v"}

	cityOnly := models.User{ExternalIdentityID: "c", ShowCity: true}
	if CanSeeCity(&viewer, &cityOnly) {
		t.Fatalf("city must stay hidden when location is not shared")
	}

	locationOnly := models.User{ExternalIdentityID: "c", ShowLocation: true}
	if !CanSee(&viewer, &locationOnly) || CanSeeCity(&viewer, &locationOnly) {
		t.Fatalf("location without city should be visible with city hidden")
	}

	both := models.User{ExternalIdentityID: "c", ShowLocation: true, ShowCity: true}
	if !CanSeeCity(&viewer, &both) {
		t.Fatalf("expected city to be visible")
	}
}

func TestVisibleToIncludesSharingUsersOnly(t *testing.T) {
	viewer := models.User{ExternalIdentityID: "v"}
	users := []models.User{
		viewer,
		{ExternalIdentityID: "a", ShowLocation: true},
		{ExternalIdentityID: "b", ShowLocation: false},
	}

	got := VisibleTo(viewer, users, nil)
	if len(got) != 2 {
		t.Fatalf("expected viewer and a, got %d entries", len(got))
	}
	if !got[0].Self || got[0].ExternalIdentityID != "v" {
		t.Fatalf("viewer must be listed first, got %+v", got[0])
	}
	if got[1].ExternalIdentityID != "a" {
		t.Fatalf("expected a, got %s", got[1].ExternalIdentityID)
	}
}

func TestVisibleToUsesLiveLocationForSelf(t *testing.T) {
	viewer := models.User{
		ExternalIdentityID: "v",
		Latitude:           floatPtr(1),
		Longitude:          floatPtr(1),
	}

	got := VisibleTo(viewer, nil, &LiveLocation{Latitude: 40.7, Longitude: -74.0})
	if len(got) != 1 {
		t.Fatalf("expected only self, got %d", len(got))
	}
	if *got[0].Latitude != 40.7 || *got[0].Longitude != -74.0 {
		t.Fatalf("expected live coordinates, got %v,%v", *got[0].Latitude, *got[0].Longitude)
	}
	if *viewer.Latitude != 1 {
		t.Fatalf("stored record must not be modified")
	}
}

type fakeCities struct {
	calls int
	err   error
}

func (f *fakeCities) City(ctx context.Context, lat, lon float64) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "Springfield", nil
}

func TestVisibilityServiceAfterBlock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "a", true)
	env.seedUser(t, "b", true)

	svc := NewVisibilityService(env.users, nil, nil)

	before, err := svc.VisibleUsers(ctx, "b", nil)
	if err != nil {
		t.Fatalf("visible users: %v", err)
	}
	if len(before) != 2 {
		t.Fatalf("expected b to see a before blocking, got %d entries", len(before))
	}

	if err := env.users.Block(ctx, "a", "b"); err != nil {
		t.Fatalf("block: %v", err)
	}

	for _, viewer := range []string{"a", "b"} {
		after, err := svc.VisibleUsers(ctx, viewer, nil)
		if err != nil {
			t.Fatalf("visible users for %s: %v", viewer, err)
		}
		if len(after) != 1 || !after[0].Self {
			t.Fatalf("%s should only see themselves after the block, got %+v", viewer, after)
		}
	}
}

func TestVisibilityServiceFillsCityOnlyWhenShared(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "v", false)
	env.seedUser(t, "city", true)
	env.seedUser(t, "nocity", true)
	if err := env.users.SetShowCity(ctx, "city", true); err != nil {
		t.Fatalf("show city: %v", err)
	}
	for _, id := range []string{"city", "nocity"} {
		if err := env.location.UpdateLocation(ctx, id, 39.78, -89.65); err != nil {
			t.Fatalf("update location %s: %v", id, err)
		}
	}

	cities := &fakeCities{}
	svc := NewVisibilityService(env.users, cities, nil)
	got, err := svc.VisibleUsers(ctx, "v", nil)
	if err != nil {
		t.Fatalf("visible users: %v", err)
	}

	byID := map[string]VisibleUser{}
	for _, u := range got {
		byID[u.ExternalIdentityID] = u
	}
	if byID["city"].City != "Springfield" {
		t.Fatalf("expected city text, got %q", byID["city"].City)
	}
	if _, ok := byID["nocity"]; !ok {
		t.Fatalf("user hiding only their city must still be listed")
	}
	if byID["nocity"].City != "" {
		t.Fatalf("city must be hidden, got %q", byID["nocity"].City)
	}
	// the viewer has no location, so only one lookup happens
	if cities.calls != 1 {
		t.Fatalf("expected 1 lookup, got %d", cities.calls)
	}
}

func TestVisibilityServiceIgnoresCityErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "v", false)
	env.seedUser(t, "c", true)
	if err := env.users.SetShowCity(ctx, "c", true); err != nil {
		t.Fatalf("show city: %v", err)
	}
	if err := env.location.UpdateLocation(ctx, "c", 10, 10); err != nil {
		t.Fatalf("update location: %v", err)
	}

	svc := NewVisibilityService(env.users, &fakeCities{err: errors.New("quota exceeded")}, nil)
	got, err := svc.VisibleUsers(ctx, "v", nil)
	if err != nil {
		t.Fatalf("visible users: %v", err)
	}
	if len(got) != 2 || got[1].City != "" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestVisibilityServiceUnknownViewer(t *testing.T) {
	env := newTestEnv(t)
	svc := NewVisibilityService(env.users, nil, nil)
	if _, err := svc.VisibleUsers(context.Background(), "ghost", nil); err == nil {
		t.Fatalf("expected not found")
	}
}
