package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"googlemaps.github.io/maps"
)

const (
	UnknownCity   = "Unknown Location"
	cityCacheTTL  = 7 * 24 * time.Hour
	cityKeyPrefix = "city:"
)

// CityResolver turns coordinates into a coarse city name.
type CityResolver interface {
	City(ctx context.Context, lat, lon float64) (string, error)
}

type reverseGeocoder interface {
	ReverseGeocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// GoogleCityResolver looks up the locality component and caches it in Redis
// on a ~1km grid.
type GoogleCityResolver struct {
	geocoder    reverseGeocoder
	redisClient *redis.Client
	logger      *zap.Logger
}

func NewGoogleCityResolver(apiKey string, redisClient *redis.Client, logger *zap.Logger) (*GoogleCityResolver, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("google maps client: %w", err)
	}
	return newGoogleCityResolver(client, redisClient, logger), nil
}

func newGoogleCityResolver(geocoder reverseGeocoder, redisClient *redis.Client, logger *zap.Logger) *GoogleCityResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoogleCityResolver{geocoder: geocoder, redisClient: redisClient, logger: logger}
}

// City never fails on a geocoder miss; it falls back to UnknownCity.
func (r *GoogleCityResolver) City(ctx context.Context, lat, lon float64) (string, error) {
	key := fmt.Sprintf("%s%.2f:%.2f", cityKeyPrefix, lat, lon)
	if city, err := r.redisClient.Get(ctx, key).Result(); err == nil {
		return city, nil
	} else if err != redis.Nil {
		r.logger.Warn("city cache read failed", zap.String("key", key), zap.Error(err))
	}

	results, err := r.geocoder.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: lat, Lng: lon},
	})
	if err != nil {
		r.logger.Warn("reverse geocode failed", zap.Float64("lat", lat), zap.Float64("lon", lon), zap.Error(err))
		return UnknownCity, nil
	}

	city := UnknownCity
	if len(results) > 0 {
		for _, component := range results[0].AddressComponents {
			if slices.Contains(component.Types, "locality") {
				city = component.LongName
				break
			}
		}
	}

	if err := r.redisClient.Set(ctx, key, city, cityCacheTTL).Err(); err != nil {
		r.logger.Warn("city cache write failed", zap.String("key", key), zap.Error(err))
	}
	return city, nil
}
