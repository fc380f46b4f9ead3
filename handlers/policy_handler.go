package handlers

import (
	"net/http"

	"wya-server/middleware"
)

const policyLastUpdated = "2026-10-01"

type policySection struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

var privacyPolicy = []policySection{
	{
		Heading: "What we collect",
		Body: "Your name, email address and phone number when you sign up, the position your device " +
			"reports while the app is open, your avatar choice, your sharing preferences, the people " +
			"you block, reports you file, and a push notification token if you allow notifications.",
	},
	{
		Heading: "Who can see your location",
		Body: "Nobody, unless you turn on location sharing. When sharing is on, other members can see " +
			"your last reported position, except people you have blocked and people who have blocked you. " +
			"Your city is shown on the contact list only if you separately turn on city sharing.",
	},
	{
		Heading: "How long we keep it",
		Body: "We keep only your most recent position; each report replaces the previous one. " +
			"Reports you file are kept for moderation.",
	},
	{
		Heading: "Notifications",
		Body:    "If you have not opened the app for a month we may send you at most one reminder per month.",
	},
	{
		Heading: "Deleting your account",
		Body: "Deleting your account from the profile screen removes your sign-in identity and your " +
			"stored profile and position. It cannot be undone.",
	},
	{
		Heading: "Third parties",
		Body: "Sign-in is handled by our authentication provider, city names are looked up with a " +
			"mapping provider, and notifications are delivered through Expo. We do not sell your data.",
	},
}

type PolicyHandler struct{}

func NewPolicyHandler() *PolicyHandler {
	return &PolicyHandler{}
}

func (h *PolicyHandler) PrivacyPolicy(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"title":        "Privacy Policy",
		"last_updated": policyLastUpdated,
		"sections":     privacyPolicy,
	})
}

func (h *PolicyHandler) Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
