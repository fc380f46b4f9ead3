package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"wya-server/models"
	"wya-server/utils/errors"
)

const (
	checkInTitle    = "Time to check in!"
	checkInContent  = "We noticed you haven't checked in for a while - take a moment to open the app."
	leaseKeyPrefix  = "lease:check-in:"
	defaultLeaseTTL = 10 * time.Minute
	pushTimeout     = 10 * time.Second
	releaseLeaseLua = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) end return 0`
)

var releaseLease = redis.NewScript(releaseLeaseLua)

// ScanResult summarises one CheckInactiveUsers run.
type ScanResult struct {
	Nonce         string `json:"nonce"`
	Scanned       int    `json:"scanned"`
	Notified      int    `json:"notified"`
	AlreadySent   int    `json:"already_sent"`
	PushSent      int    `json:"push_sent"`
	PushFailed    int    `json:"push_failed"`
	InvalidTokens int    `json:"invalid_tokens"`
	Errors        int    `json:"errors"`
}

type NotificationService struct {
	users         UserStore
	notifications NotificationStore
	pusher        Pusher
	redisClient   *redis.Client
	leaseTTL      time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

func NewNotificationService(users UserStore, notifications NotificationStore, pusher Pusher, redisClient *redis.Client, leaseTTL time.Duration, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if leaseTTL <= 0 {
		leaseTTL = defaultLeaseTTL
	}
	return &NotificationService{
		users:         users,
		notifications: notifications,
		pusher:        pusher,
		redisClient:   redisClient,
		leaseTTL:      leaseTTL,
		logger:        logger,
		now:           time.Now,
	}
}

// CheckInNonce names the monthly check-in period containing t, e.g. "check-in-october-2026".
func CheckInNonce(t time.Time) string {
	return fmt.Sprintf("check-in-%s-%d", strings.ToLower(t.Month().String()), t.Year())
}

// CreateNotification logs a notification for userID. An empty nonce gets a
// random one. created is false when (userID, nonce) was already logged.
func (s *NotificationService) CreateNotification(ctx context.Context, userID, title, content, nonce string) (bool, error) {
	if nonce == "" {
		nonce = uuid.NewString()
	}
	return s.notifications.CreateOnce(ctx, models.Notification{
		UserID:    userID,
		Title:     title,
		Content:   content,
		Status:    models.NotificationStatusSent,
		Nonce:     nonce,
		CreatedAt: s.now().UTC(),
	})
}

// CheckInactiveUsers nudges every user whose last location report is more than
// a month old, at most once per user per calendar month. A failed push does not
// undo the logged notification.
func (s *NotificationService) CheckInactiveUsers(ctx context.Context) (ScanResult, error) {
	now := s.now().UTC()
	result := ScanResult{Nonce: CheckInNonce(now)}

	release, err := s.acquireLease(ctx, result.Nonce)
	if err != nil {
		return result, err
	}
	defer release()

	cutoff := now.AddDate(0, -1, 0)
	inactive, err := s.users.ListInactiveSince(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to list inactive users", zap.Time("cutoff", cutoff), zap.Error(err))
		return result, err
	}
	result.Scanned = len(inactive)

	for i := range inactive {
		s.notifyUser(ctx, &inactive[i], &result)
	}

	s.logger.Info("inactive user scan finished",
		zap.String("nonce", result.Nonce),
		zap.Int("scanned", result.Scanned),
		zap.Int("notified", result.Notified),
		zap.Int("already_sent", result.AlreadySent),
		zap.Int("push_failed", result.PushFailed),
		zap.Int("errors", result.Errors),
	)
	return result, nil
}

func (s *NotificationService) notifyUser(ctx context.Context, user *models.User, result *ScanResult) {
	log := s.logger.With(zap.String("user_id", user.ExternalIdentityID), zap.String("nonce", result.Nonce))

	created, err := s.CreateNotification(ctx, user.ExternalIdentityID, checkInTitle, checkInContent, result.Nonce)
	if err != nil {
		// no record means no push, otherwise the next run would push again
		log.Error("failed to create notification", zap.Error(err))
		result.Errors++
		return
	}
	if !created {
		log.Info("notification already sent this period")
		result.AlreadySent++
		return
	}
	result.Notified++

	if user.ExpoPushToken == "" {
		return
	}
	if !ValidPushToken(user.ExpoPushToken) {
		log.Error("invalid expo push token", zap.String("push_token", user.ExpoPushToken))
		result.InvalidTokens++
		return
	}

	pushCtx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()
	err = s.pusher.Push(pushCtx, user.ExpoPushToken, PushMessage{
		Title: checkInTitle,
		Body:  checkInContent,
		Data:  map[string]string{"nonce": result.Nonce},
	})
	if err != nil {
		log.Error("failed to send push notification", zap.Error(err))
		result.PushFailed++
		return
	}
	result.PushSent++
	log.Info("sent inactivity notification")
}

func (s *NotificationService) acquireLease(ctx context.Context, nonce string) (func(), error) {
	key := leaseKeyPrefix + nonce
	token := uuid.NewString()

	ok, err := s.redisClient.SetNX(ctx, key, token, s.leaseTTL).Result()
	if err != nil {
		s.logger.Error("failed to acquire scan lease", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	if !ok {
		s.logger.Warn("inactive user scan already running", zap.String("key", key))
		return nil, errors.ErrScanInProgress
	}

	return func() {
		// the request context may already be cancelled
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := releaseLease.Run(releaseCtx, s.redisClient, []string{key}, token).Err(); err != nil {
			s.logger.Warn("failed to release scan lease", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
