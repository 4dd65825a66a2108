package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"blinklean/internal/config"
	"blinklean/internal/domain"
	"blinklean/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	msgInvalidPlatform  = "Invalid platform header. Must be web or app"
	msgLaunchingSoon    = "Launching soon in your area"
	msgScrapAvailable   = "Scrap pickup available in your area"
	msgAppOnly          = "Available via BlinkLean App"
	msgServiceNotInZone = "Not available in your area yet"
	servicesCachePrefix = "services:"
	eligibilityCachePfx = "eligibility:"
)

type CatalogRepository interface {
	domain.ServiceRepository
	domain.ZoneRepository
	domain.RateRepository
}

// CatalogService lists bookable services per platform and seeds the catalogue.
type CatalogService struct {
	repo   CatalogRepository
	zones  domain.ZoneResolver
	store  domain.Store
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewCatalogService(repo CatalogRepository, zones domain.ZoneResolver, store domain.Store, ttl time.Duration, logger *zerolog.Logger) *CatalogService {
	return &CatalogService{repo: repo, zones: zones, store: store, ttl: ttl, logger: orNop(logger)}
}

func ServicesKey(platform, pincode string) string {
	if pincode == "" {
		pincode = "all"
	}
	return servicesCachePrefix + platform + ":" + pincode
}

// ListServices resolves booking availability of every catalogue entry for a
// platform and, when given, a pincode.
func (s *CatalogService) ListServices(ctx context.Context, platform, pincode string) ([]models.ServiceListing, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	if platform != models.PlatformApp && platform != models.PlatformWeb {
		return nil, domain.ValidationError{Field: "platform", Msg: msgInvalidPlatform}
	}
	pincode = strings.TrimSpace(pincode)
	if pincode != "" && !config.ValidPincode(pincode) {
		return nil, domain.ValidationError{Field: "pincode", Msg: "must be a valid 6-digit pincode"}
	}

	key := ServicesKey(platform, pincode)
	if cached, ok := s.cached(ctx, key); ok {
		return cached, nil
	}

	services, err := s.repo.GetServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}

	var eligibility *models.Eligibility
	if pincode != "" {
		eligibility, err = s.zones.Resolve(ctx, pincode, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("resolve zone: %w", err)
		}
	}

	listings := make([]models.ServiceListing, 0, len(services))
	for _, svc := range services {
		l := models.ServiceListing{
			ID:             svc.ID,
			Name:           svc.Name,
			Category:       svc.Category,
			Description:    svc.Description,
			AppOnly:        svc.AppOnly,
			BookingEnabled: true,
		}
		applyAvailability(&l, platform, eligibility)
		listings = append(listings, l)
	}

	if data, err := json.Marshal(listings); err == nil {
		if err := s.store.Set(ctx, key, data, s.ttl); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to cache service listing")
		}
	}
	return listings, nil
}

func applyAvailability(l *models.ServiceListing, platform string, e *models.Eligibility) {
	sub := subServiceFor(l.Category)
	if sub == models.SubServiceScrap {
		if e != nil && !e.Allows(sub) {
			l.BookingEnabled = false
			l.Message = msgLaunchingSoon
			return
		}
		l.Message = msgScrapAvailable
		return
	}

	if platform == models.PlatformWeb {
		l.BookingEnabled = false
		l.Message = msgAppOnly
		return
	}
	switch {
	case e == nil:
	case !e.Serviceable:
		// unknown or inactive zone
		l.BookingEnabled = false
		l.Message = msgLaunchingSoon
	case sub != "" && !e.Allows(sub):
		l.BookingEnabled = false
		l.Message = msgServiceNotInZone
	}
}

func subServiceFor(category string) string {
	c := strings.ToLower(category)
	switch {
	case strings.Contains(c, "scrap"), strings.Contains(c, "recycl"):
		return models.SubServiceScrap
	case strings.Contains(c, "clean"):
		return models.SubServiceCleaning
	case strings.Contains(c, "vehicle"), strings.Contains(c, "car"):
		return models.SubServiceVehicle
	case strings.Contains(c, "laundry"):
		return models.SubServiceLaundry
	default:
		return ""
	}
}

func (s *CatalogService) cached(ctx context.Context, key string) ([]models.ServiceListing, bool) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var listings []models.ServiceListing
	if err := json.Unmarshal(data, &listings); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("dropping unreadable service cache entry")
		return nil, false
	}
	return listings, true
}

// SeedResult counts the catalogue entries written by Seed.
type SeedResult struct {
	Zones    int
	Rates    int
	Services int
}

// Seed upserts zones and services and loads rates into an empty rate table.
// Cached eligibility and service listings are flushed afterwards.
func (s *CatalogService) Seed(ctx context.Context, catalog *config.Catalog) (*SeedResult, error) {
	if catalog == nil {
		return nil, errors.New("catalog is nil")
	}
	if err := config.ValidateCatalog(catalog); err != nil {
		return nil, domain.ValidationError{Field: "catalog", Msg: err.Error(), Err: err}
	}

	res := &SeedResult{}
	for i := range catalog.Zones {
		if err := s.repo.UpsertZone(ctx, &catalog.Zones[i]); err != nil {
			return nil, fmt.Errorf("seed zone %d: %w", catalog.Zones[i].ID, err)
		}
		res.Zones++
	}

	count, err := s.repo.CountRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("count rates: %w", err)
	}
	if count == 0 {
		for _, r := range catalog.Rates {
			rate := &models.ScrapRate{
				ID:           r.ID,
				MaterialName: strings.TrimSpace(r.MaterialName),
				RatePerKg:    decimal.NewFromFloat(r.RatePerKg).Round(2),
				IsActive:     r.IsActive,
			}
			if err := s.repo.UpsertRate(ctx, rate); err != nil {
				return nil, fmt.Errorf("seed rate %s: %w", rate.MaterialName, err)
			}
			res.Rates++
		}
	} else {
		s.logger.Info().Int("existing", count).Msg("rate table already populated, skipping rate seed")
	}

	for i := range catalog.Services {
		if err := s.repo.UpsertService(ctx, &catalog.Services[i]); err != nil {
			return nil, fmt.Errorf("seed service %d: %w", catalog.Services[i].ID, err)
		}
		res.Services++
	}

	for _, prefix := range []string{eligibilityCachePfx, servicesCachePrefix} {
		if err := s.store.DeletePrefix(ctx, prefix); err != nil {
			s.logger.Warn().Err(err).Str("prefix", prefix).Msg("failed to flush cache")
		}
	}

	s.logger.Info().Int("zones", res.Zones).Int("rates", res.Rates).Int("services", res.Services).Msg("catalog seeded")
	return res, nil
}
