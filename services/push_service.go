package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
)

// ErrInvalidPushToken is returned before any delivery attempt for malformed tokens.
var ErrInvalidPushToken = stderrors.New("invalid expo push token")

type PushMessage struct {
	Title string
	Body  string
	Data  map[string]string
}

// Pusher delivers one notification to one device token.
type Pusher interface {
	Push(ctx context.Context, token string, msg PushMessage) error
}

type ExpoPusher struct {
	client *expo.PushClient
}

func NewExpoPusher() *ExpoPusher {
	return newExpoPusher(&expo.ClientConfig{})
}

// newExpoPusher bounds every request with pushTimeout unless config brings its own client.
func newExpoPusher(config *expo.ClientConfig) *ExpoPusher {
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: pushTimeout}
	}
	return &ExpoPusher{client: expo.NewPushClient(config)}
}

type publishResult struct {
	response expo.PushResponse
	err      error
}

func (p *ExpoPusher) Push(ctx context.Context, token string, msg PushMessage) error {
	pushToken, err := expo.NewExponentPushToken(token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPushToken, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Publish takes no context. The HTTP client timeout ends the request
	// when the caller stops waiting first.
	done := make(chan publishResult, 1)
	go func() {
		response, err := p.client.Publish(&expo.PushMessage{
			To:       []expo.ExponentPushToken{pushToken},
			Title:    msg.Title,
			Body:     msg.Body,
			Data:     msg.Data,
			Sound:    "default",
			Priority: expo.HighPriority,
		})
		done <- publishResult{response: response, err: err}
	}()

	var result publishResult
	select {
	case <-ctx.Done():
		return fmt.Errorf("expo publish: %w", ctx.Err())
	case result = <-done:
	}
	if result.err != nil {
		return fmt.Errorf("expo publish: %w", result.err)
	}
	if err := result.response.ValidateResponse(); err != nil {
		return fmt.Errorf("expo ticket: %w", err)
	}
	return nil
}

// ValidPushToken reports whether token looks like an Expo push token.
func ValidPushToken(token string) bool {
	_, err := expo.NewExponentPushToken(token)
	return err == nil
}
