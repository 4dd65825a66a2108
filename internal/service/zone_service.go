package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"blinklean/internal/config"
	"blinklean/internal/domain"
	"blinklean/internal/models"

	"github.com/rs/zerolog"
)

const earthRadiusKm = 6371.0

// ZoneService resolves a pincode or coordinate pair to service eligibility.
type ZoneService struct {
	zones  domain.ZoneRepository
	store  domain.Store
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewZoneService(zones domain.ZoneRepository, store domain.Store, ttl time.Duration, logger *zerolog.Logger) *ZoneService {
	return &ZoneService{zones: zones, store: store, ttl: ttl, logger: orNop(logger)}
}

// EligibilityKey builds the cache key for a lookup.
func EligibilityKey(pincode string, lat, lng *float64) string {
	return fmt.Sprintf("eligibility:%s:%s:%s", pincode, formatCoord(lat), formatCoord(lng))
}

func formatCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.5f", *v)
}

// Resolve never reports a missing zone as an error: it returns Serviceable=false
// with the launching-soon advisory.
func (s *ZoneService) Resolve(ctx context.Context, pincode string, lat, lng *float64) (*models.Eligibility, error) {
	pincode = strings.TrimSpace(pincode)
	hasCoords := lat != nil && lng != nil
	if pincode == "" && !hasCoords {
		return nil, domain.ValidationError{Msg: "Provide either coordinates, address, or pincode."}
	}
	if pincode != "" && !config.ValidPincode(pincode) {
		return nil, domain.ValidationError{Field: "pincode", Msg: "must be a valid 6-digit pincode"}
	}
	if hasCoords && (math.Abs(*lat) > 90 || math.Abs(*lng) > 180) {
		return nil, domain.ValidationError{Field: "coordinates", Msg: "latitude or longitude out of range"}
	}

	key := EligibilityKey(pincode, lat, lng)
	if cached, ok := s.fromCache(ctx, key); ok {
		return cached, nil
	}

	zone, nearest, err := s.lookup(ctx, pincode, lat, lng)
	if err != nil {
		return nil, err
	}

	result := buildEligibility(zone, pincode)
	if zone == nil && nearest != nil {
		result.NearestZone = nearest.AreaName
		result.AdvisoryMessage = fmt.Sprintf("%s Nearest service zone: %s", models.AdvisoryLaunchingSoon, nearest.AreaName)
	}

	s.toCache(ctx, key, result)
	return result, nil
}

func (s *ZoneService) lookup(ctx context.Context, pincode string, lat, lng *float64) (*models.Zone, *models.Zone, error) {
	if pincode != "" {
		zone, err := s.zones.GetActiveZoneByPincode(ctx, pincode)
		if err == nil {
			return zone, nil, nil
		}
		var nf domain.NotFoundError
		if !errors.As(err, &nf) {
			return nil, nil, fmt.Errorf("resolve zone by pincode: %w", err)
		}
		if lat == nil || lng == nil {
			return nil, nil, nil
		}
	}

	zones, err := s.zones.GetActiveZones(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve zone by coordinates: %w", err)
	}

	var (
		nearest  *models.Zone
		bestDist = math.MaxFloat64
	)
	for _, z := range zones {
		if !z.HasBounds() {
			continue
		}
		if z.Contains(*lat, *lng) {
			return z, nil, nil
		}
		clat, clng := z.Center()
		if d := haversineKm(*lat, *lng, clat, clng); d < bestDist {
			bestDist = d
			nearest = z
		}
	}
	return nil, nearest, nil
}

func buildEligibility(zone *models.Zone, pincode string) *models.Eligibility {
	if zone == nil || !zone.IsActive {
		return &models.Eligibility{
			Serviceable: false,
			Pincode:     pincode,
			SubServices: map[string]bool{
				models.SubServiceScrap:    false,
				models.SubServiceCleaning: false,
				models.SubServiceVehicle:  false,
				models.SubServiceLaundry:  false,
			},
			AllowedServices: []string{},
			AdvisoryMessage: models.AdvisoryLaunchingSoon,
		}
	}

	subs := zone.SubServices()
	result := &models.Eligibility{
		Serviceable:     true,
		Pincode:         zone.Pincode,
		ZoneID:          zone.ID,
		SubServices:     subs,
		AllowedServices: []string{},
		AdvisoryMessage: models.AdvisoryAvailable,
	}
	for _, name := range []string{models.SubServiceScrap, models.SubServiceCleaning, models.SubServiceVehicle, models.SubServiceLaundry} {
		if subs[name] {
			result.AllowedServices = append(result.AllowedServices, name)
		} else {
			result.RestrictionRules = append(result.RestrictionRules, fmt.Sprintf("%s service not available in %s", name, zone.AreaName))
		}
	}
	return result
}

func (s *ZoneService) fromCache(ctx context.Context, key string) (*models.Eligibility, bool) {
	if s.store == nil {
		return nil, false
	}
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var e models.Eligibility
	if err := json.Unmarshal(raw, &e); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("discarding corrupt eligibility cache entry")
		return nil, false
	}
	return &e, true
}

func (s *ZoneService) toCache(ctx context.Context, key string, e *models.Eligibility) {
	if s.store == nil || s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, key, raw, s.ttl); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to cache eligibility")
	}
}

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
