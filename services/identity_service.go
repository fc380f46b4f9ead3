package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkuser "github.com/clerk/clerk-sdk-go/v2/user"
)

// ErrIdentityNotFound is returned when the auth provider has no such identity.
var ErrIdentityNotFound = stderrors.New("identity not found")

// IdentityProvider is the slice of the auth provider the backend needs.
type IdentityProvider interface {
	DeleteIdentity(ctx context.Context, externalID string) error
}

type ClerkIdentityProvider struct {
	client *clerkuser.Client
}

func NewClerkIdentityProvider(secretKey string) *ClerkIdentityProvider {
	config := &clerk.ClientConfig{}
	config.Key = clerk.String(secretKey)
	return &ClerkIdentityProvider{client: clerkuser.NewClient(config)}
}

func (p *ClerkIdentityProvider) DeleteIdentity(ctx context.Context, externalID string) error {
	_, err := p.client.Delete(ctx, externalID)
	if err == nil {
		return nil
	}
	var apiErr *clerk.APIErrorResponse
	if stderrors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusNotFound {
		return ErrIdentityNotFound
	}
	return fmt.Errorf("clerk delete user %s: %w", externalID, err)
}
