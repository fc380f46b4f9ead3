package services

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"wya-server/utils/errors"
)

const userGeoKey = "users:geo"

// Redis GEO cannot index latitudes beyond the Web Mercator limit.
const maxGeoLatitude = 85.05112878

// LocationService owns the write path for position reports and the geo index.
type LocationService struct {
	store       UserStore
	users       *UserService
	redisClient *redis.Client
	logger      *zap.Logger
	now         func() time.Time
}

func NewLocationService(store UserStore, users *UserService, redisClient *redis.Client, logger *zap.Logger) *LocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocationService{
		store:       store,
		users:       users,
		redisClient: redisClient,
		logger:      logger,
		now:         time.Now,
	}
}

func ValidateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return errors.Validationf("invalid coordinates: lat=%f, lon=%f", lat, lon)
	}
	return nil
}

func geoIndexable(lat, lon float64) bool {
	return lat >= -maxGeoLatitude && lat <= maxGeoLatitude && lon >= -180 && lon <= 180
}

// UpdateLocation overwrites the user's position and stamps it with the current
// time. Last write wins; there is no ordering check against concurrent reports.
func (s *LocationService) UpdateLocation(ctx context.Context, externalID string, lat, lon float64) error {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return err
	}

	if err := s.store.UpdateLocation(ctx, externalID, lat, lon, s.now().UTC()); err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			return errors.NotFoundf("User not found")
		}
		s.logger.Error("failed to update location", zap.String("external_id", externalID), zap.Error(err))
		return err
	}

	// the store is authoritative; index and cache failures are only logged
	s.users.invalidate(ctx, externalID)
	s.indexLocation(ctx, externalID, lat, lon)

	s.logger.Debug("location updated", zap.String("external_id", externalID), zap.Float64("lat", lat), zap.Float64("lon", lon))
	return nil
}

// indexLocation keeps the GEO member in step with the stored position. A
// position Redis cannot index drops any previous member instead.
func (s *LocationService) indexLocation(ctx context.Context, externalID string, lat, lon float64) {
	var err error
	if geoIndexable(lat, lon) {
		err = s.redisClient.GeoAdd(ctx, userGeoKey, &redis.GeoLocation{
			Name:      externalID,
			Longitude: lon,
			Latitude:  lat,
		}).Err()
	} else {
		s.logger.Info("position outside geo index range", zap.String("external_id", externalID), zap.Float64("lat", lat))
		err = s.redisClient.ZRem(ctx, userGeoKey, externalID).Err()
	}
	if err != nil {
		s.logger.Warn("failed to update geo index", zap.String("external_id", externalID), zap.Error(err))
	}
}

// Nearby returns users within radiusKm of (lat, lon) that viewerID may see, closest first.
func (s *LocationService) Nearby(ctx context.Context, viewerID string, lat, lon, radiusKm float64) ([]VisibleUser, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	if !geoIndexable(lat, lon) {
		return nil, errors.Validationf("nearby search is limited to latitudes within ±%.2f", maxGeoLatitude)
	}
	if radiusKm <= 0 {
		return nil, errors.Validationf("radius must be positive")
	}

	viewer, err := s.users.GetUser(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	geoResults, err := s.redisClient.GeoRadius(ctx, userGeoKey, lon, lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		s.logger.Error("failed to query geo index", zap.Error(err))
		return nil, err
	}

	nearby := []VisibleUser{}
	for _, geoResult := range geoResults {
		if geoResult.Name == viewerID {
			continue
		}
		candidate, err := s.users.GetUser(ctx, geoResult.Name)
		if err != nil {
			// stale index entry, e.g. a deleted account
			s.logger.Debug("skipping geo member", zap.String("external_id", geoResult.Name), zap.Error(err))
			continue
		}
		if !CanSee(&viewer, &candidate) {
			continue
		}
		v := toVisibleUser(&candidate)
		v.Distance = geoResult.Dist
		nearby = append(nearby, v)
	}
	return nearby, nil
}

// IndexAll rebuilds the geo index from the store.
func (s *LocationService) IndexAll(ctx context.Context) (int, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return 0, err
	}
	var locations []*redis.GeoLocation
	for _, u := range users {
		if !u.HasLocation() {
			continue
		}
		// one bad pair makes Redis reject the whole GEOADD
		if !geoIndexable(*u.Latitude, *u.Longitude) {
			s.logger.Info("skipping position outside geo index range",
				zap.String("external_id", u.ExternalIdentityID),
				zap.Float64("lat", *u.Latitude),
			)
			continue
		}
		locations = append(locations, &redis.GeoLocation{
			Name:      u.ExternalIdentityID,
			Longitude: *u.Longitude,
			Latitude:  *u.Latitude,
		})
	}
	if len(locations) == 0 {
		return 0, nil
	}
	if err := s.redisClient.GeoAdd(ctx, userGeoKey, locations...).Err(); err != nil {
		return 0, err
	}
	s.logger.Info("geo index rebuilt", zap.Int("users", len(locations)))
	return len(locations), nil
}
