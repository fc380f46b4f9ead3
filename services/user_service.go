package services

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"wya-server/models"
	"wya-server/utils/errors"
)

const (
	userCachePrefix = "user:"
	// bumped by every write; a cache fill only lands if it is unchanged
	userGenPrefix = "user-gen:"
)

// KEYS[1] cache key, KEYS[2] generation key; ARGV: generation seen before the read, value, ttl ms.
var fillUserCache = redis.NewScript(`
if (redis.call("GET", KEYS[2]) or "0") ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1`)

type UserService struct {
	store       UserStore
	redisClient *redis.Client
	identity    IdentityProvider
	cacheTTL    time.Duration
	logger      *zap.Logger
}

type SignupInput struct {
	PhoneNumber        string `json:"phoneNumber"`
	FirstName          string `json:"firstName"`
	LastName           string `json:"lastName"`
	Email              string `json:"email"`
	ExternalIdentityID string `json:"externalIdentityId"`
}

func NewUserService(store UserStore, redisClient *redis.Client, identity IdentityProvider, cacheTTL time.Duration, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &UserService{
		store:       store,
		redisClient: redisClient,
		identity:    identity,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		s.logger.Error("failed to list users", zap.Error(err))
		return nil, err
	}
	return users, nil
}

// GetUser retrieves a user from Redis or the store
func (s *UserService) GetUser(ctx context.Context, externalID string) (models.User, error) {
	var user models.User

	// Check Redis first
	userJSON, err := s.redisClient.Get(ctx, userCachePrefix+externalID).Result()
	if err == nil {
		if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
			s.logger.Warn("failed to unmarshal cached user", zap.String("external_id", externalID), zap.Error(err))
		} else {
			return user, nil
		}
	} else if err != redis.Nil {
		s.logger.Warn("user cache read failed", zap.String("external_id", externalID), zap.Error(err))
	}

	// read the generation first so a write landing during the store read
	// stops this fill from caching the older record
	gen, err := s.redisClient.Get(ctx, userGenPrefix+externalID).Result()
	if err == redis.Nil {
		gen = "0"
	} else if err != nil {
		s.logger.Warn("user cache generation read failed", zap.String("external_id", externalID), zap.Error(err))
		gen = ""
	}

	user, err = s.store.GetUser(ctx, externalID)
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			return models.User{}, errors.NotFoundf("User not found")
		}
		return models.User{}, err
	}
	if gen == "" {
		return user, nil
	}

	// Cache in Redis
	userJSONBytes, err := json.Marshal(user)
	if err != nil {
		return user, nil
	}
	keys := []string{userCachePrefix + externalID, userGenPrefix + externalID}
	if err := fillUserCache.Run(ctx, s.redisClient, keys, gen, userJSONBytes, s.cacheTTL.Milliseconds()).Err(); err != nil {
		s.logger.Warn("user cache write failed", zap.String("external_id", externalID), zap.Error(err))
	}

	return user, nil
}

// GetByPhone reports whether a user with the phone number exists.
func (s *UserService) GetByPhone(ctx context.Context, phone string) (models.User, bool, error) {
	user, err := s.store.FindByPhone(ctx, phone)
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			return models.User{}, false, nil
		}
		s.logger.Error("failed to look up phone number", zap.Error(err))
		return models.User{}, false, err
	}
	return user, true, nil
}

// Signup stores a new user record. Phone numbers are not deduplicated.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (string, error) {
	in.ExternalIdentityID = strings.TrimSpace(in.ExternalIdentityID)
	if in.ExternalIdentityID == "" {
		return "", errors.Validationf("externalIdentityId is required")
	}
	if strings.TrimSpace(in.PhoneNumber) == "" {
		return "", errors.Validationf("phoneNumber is required")
	}

	user := models.User{
		ExternalIdentityID: in.ExternalIdentityID,
		FirstName:          in.FirstName,
		LastName:           in.LastName,
		Email:              in.Email,
		PhoneNumber:        in.PhoneNumber,
		Blocked:            []string{},
		BlockedBy:          []string{},
	}
	id, err := s.store.CreateUser(ctx, user)
	if err != nil {
		s.logger.Error("failed to create user", zap.String("external_id", in.ExternalIdentityID), zap.Error(err))
		return "", err
	}
	s.logger.Info("user signed up", zap.String("external_id", in.ExternalIdentityID), zap.String("id", id))
	return id, nil
}

func (s *UserService) SetShowLocation(ctx context.Context, externalID string, show bool) error {
	return s.updateFields(ctx, externalID, map[string]any{FieldShowLocation: show})
}

func (s *UserService) SetShowCity(ctx context.Context, externalID string, show bool) error {
	return s.updateFields(ctx, externalID, map[string]any{FieldShowCity: show})
}

func (s *UserService) SetAvatar(ctx context.Context, externalID string, avatar models.Avatar) error {
	if !avatar.Valid() {
		return errors.Validationf("unknown avatar %q", avatar)
	}
	return s.updateFields(ctx, externalID, map[string]any{FieldAvatar: avatar})
}

// SetPushToken stores the device's Expo token. An empty token clears it.
func (s *UserService) SetPushToken(ctx context.Context, externalID, token string) error {
	return s.updateFields(ctx, externalID, map[string]any{FieldExpoPushToken: strings.TrimSpace(token)})
}

// Block hides blockedID from blockerID and vice versa. Both records change or neither does.
func (s *UserService) Block(ctx context.Context, blockerID, blockedID string) error {
	if blockedID == "" {
		return errors.Validationf("blockedUserId is required")
	}
	if blockerID == blockedID {
		return errors.Validationf("users cannot block themselves")
	}

	if err := s.store.Block(ctx, blockerID, blockedID); err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			return errors.NotFoundf("User not found")
		}
		s.logger.Error("failed to block user", zap.String("blocker", blockerID), zap.String("blocked", blockedID), zap.Error(err))
		return err
	}
	s.invalidate(ctx, blockerID, blockedID)
	s.logger.Info("user blocked", zap.String("blocker", blockerID), zap.String("blocked", blockedID))
	return nil
}

// DeleteUser removes the identity upstream, then the stored record.
func (s *UserService) DeleteUser(ctx context.Context, externalID string) error {
	if err := s.identity.DeleteIdentity(ctx, externalID); err != nil {
		if !stderrors.Is(err, ErrIdentityNotFound) {
			s.logger.Error("failed to delete identity", zap.String("external_id", externalID), zap.Error(err))
			return err
		}
		// already gone upstream, usually a retry after an orphaned record
		s.logger.Warn("identity already deleted", zap.String("external_id", externalID))
	}

	if err := s.store.DeleteUser(ctx, externalID); err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			return errors.NotFoundf("User not found")
		}
		s.logger.Error("identity deleted but user record remains",
			zap.String("external_id", externalID),
			zap.Error(err),
		)
		orphaned := errors.ErrOrphanedRecord
		return errors.NewAPIError(orphaned.Code, orphaned.Message, orphaned.Status, err.Error())
	}

	s.invalidate(ctx, externalID)
	if err := s.redisClient.ZRem(ctx, userGeoKey, externalID).Err(); err != nil {
		s.logger.Warn("failed to remove user from geo index", zap.String("external_id", externalID), zap.Error(err))
	}
	s.logger.Info("user deleted", zap.String("external_id", externalID))
	return nil
}

func (s *UserService) updateFields(ctx context.Context, externalID string, fields map[string]any) error {
	if err := s.store.UpdateFields(ctx, externalID, fields); err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			return errors.NotFoundf("User not found")
		}
		s.logger.Error("failed to update user", zap.String("external_id", externalID), zap.Error(err))
		return err
	}
	s.invalidate(ctx, externalID)
	return nil
}

// invalidate drops the cached records and bumps their generations so that
// fills which read the store before this write are discarded.
func (s *UserService) invalidate(ctx context.Context, externalIDs ...string) {
	keys := make([]string, 0, len(externalIDs))
	_, err := s.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range externalIDs {
			keys = append(keys, userCachePrefix+id)
			pipe.Del(ctx, userCachePrefix+id)
			pipe.Incr(ctx, userGenPrefix+id)
			// outlive any fill still in flight
			pipe.Expire(ctx, userGenPrefix+id, s.cacheTTL+time.Minute)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("user cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
