package models

import "testing"

func TestAvatarValid(t *testing.T) {
	for _, a := range Avatars {
		if !a.Valid() {
			t.Fatalf("expected %q to be valid", a)
		}
	}
	for _, a := range []Avatar{"", "Bluey", "dragon"} {
		if a.Valid() {
			t.Fatalf("expected %q to be rejected", a)
		}
	}
}

func TestUserBlockLookups(t *testing.T) {
	u := User{Blocked: []string{"user_b"}, BlockedBy: []string{"user_c"}}
	if !u.HasBlocked("user_b") || u.HasBlocked("user_c") {
		t.Fatalf("unexpected HasBlocked result")
	}
	if !u.IsBlockedBy("user_c") || u.IsBlockedBy("user_b") {
		t.Fatalf("unexpected IsBlockedBy result")
	}
}
