package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"blinklean/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Payment    PaymentConfig    `yaml:"payment"`
	Admission  AdmissionConfig  `yaml:"admission"`
	Cache      CacheConfig      `yaml:"cache"`
	Reconcile  ReconcileConfig  `yaml:"reconcile"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIGRPCConfig struct {
	Enabled bool         `yaml:"enabled"`
	Port    int          `yaml:"port"`
	TLS     APITLSConfig `yaml:"tls"`
}

type APITLSConfig struct {
	Enabled           bool   `yaml:"enabled"`
	CertFile          string `yaml:"cert_file"`
	KeyFile           string `yaml:"key_file"`
	ClientCAFile      string `yaml:"client_ca_file"`
	RequireClientCert bool   `yaml:"require_client_cert"`
}

type APIAuthConfig struct {
	JWTSecret    string         `yaml:"jwt_secret"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

// APIClientKey is an operator credential for privileged endpoints.
type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type PaymentConfig struct {
	GatewayName     string        `yaml:"gateway_name"`
	BaseURL         string        `yaml:"base_url"`
	KeyID           string        `yaml:"key_id"`
	KeySecret       string        `yaml:"key_secret"`
	Timeout         time.Duration `yaml:"timeout"`
	Pricing         string        `yaml:"pricing"` // fixed, predicted
	FixedAmount     int64         `yaml:"fixed_amount"`
	Currency        string        `yaml:"currency"`
	AllowedPlatform string        `yaml:"allowed_platform"`
	VerifyLockTTL   time.Duration `yaml:"verify_lock_ttl"`
}

type AdmissionConfig struct {
	Cooldown time.Duration `yaml:"cooldown"`
}

type CacheConfig struct {
	EligibilityTTL time.Duration `yaml:"eligibility_ttl"`
	ServicesTTL    time.Duration `yaml:"services_ttl"`
}

type ReconcileConfig struct {
	Enabled      bool          `yaml:"enabled"`
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxRetries   int           `yaml:"max_retries"`
	BaseDelay    time.Duration `yaml:"base_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

func Load(configPath string) (*Config, error) {
	// .env необязателен, переменные могут прийти из окружения
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.API.Auth.JWTSecret == "" {
		return errors.New("api.auth.jwt_secret is required")
	}
	if c.Payment.KeyID == "" || c.Payment.KeySecret == "" {
		return errors.New("payment key_id and key_secret are required")
	}
	if c.Payment.BaseURL == "" {
		return errors.New("payment base_url is required")
	}
	switch c.Payment.Pricing {
	case "fixed", "predicted":
	default:
		return fmt.Errorf("unknown payment pricing %q", c.Payment.Pricing)
	}
	if c.Payment.FixedAmount <= 0 {
		return errors.New("payment fixed_amount must be positive")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "blinklean"
	}
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 20
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 40
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Payment.GatewayName == "" {
		c.Payment.GatewayName = "razorpay"
	}
	if c.Payment.BaseURL == "" {
		c.Payment.BaseURL = "https://api.razorpay.com/v1"
	}
	if c.Payment.Timeout == 0 {
		c.Payment.Timeout = 10 * time.Second
	}
	if c.Payment.Pricing == "" {
		c.Payment.Pricing = "fixed"
	}
	if c.Payment.FixedAmount == 0 {
		c.Payment.FixedAmount = models.DefaultOrderAmount
	}
	if c.Payment.Currency == "" {
		c.Payment.Currency = models.CurrencyINR
	}
	if c.Payment.AllowedPlatform == "" {
		c.Payment.AllowedPlatform = models.PlatformApp
	}
	if c.Payment.VerifyLockTTL == 0 {
		c.Payment.VerifyLockTTL = models.DefaultVerifyLockTTL * time.Second
	}

	if c.Admission.Cooldown == 0 {
		c.Admission.Cooldown = models.DefaultAdmissionCooldown * time.Second
	}
	if c.Cache.EligibilityTTL == 0 {
		c.Cache.EligibilityTTL = models.DefaultEligibilityCacheTTL * time.Second
	}
	if c.Cache.ServicesTTL == 0 {
		c.Cache.ServicesTTL = models.DefaultServicesCacheTTL * time.Second
	}

	if c.Reconcile.PollInterval == 0 {
		c.Reconcile.PollInterval = 5 * time.Second
	}
	if c.Reconcile.MaxRetries == 0 {
		c.Reconcile.MaxRetries = 5
	}
	if c.Reconcile.BaseDelay == 0 {
		c.Reconcile.BaseDelay = 2 * time.Second
	}
	if c.Reconcile.MaxDelay == 0 {
		c.Reconcile.MaxDelay = 5 * time.Minute
	}
}

// Catalog is the seed data for zones, scrap rates and services.
type Catalog struct {
	Zones    []models.Zone    `yaml:"zones"`
	Rates    []CatalogRate    `yaml:"rates"`
	Services []models.Service `yaml:"services"`
}

type CatalogRate struct {
	ID           int64   `yaml:"id"`
	MaterialName string  `yaml:"material_name"`
	RatePerKg    float64 `yaml:"rate_per_kg"`
	IsActive     bool    `yaml:"is_active"`
}

var pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)

// ValidPincode reports whether s is a six digit Indian postal code.
func ValidPincode(s string) bool {
	return pincodePattern.MatchString(s)
}

func ValidateCatalog(c *Catalog) error {
	zoneIDs := make(map[int64]bool)
	activePincodes := make(map[string]bool)
	for _, z := range c.Zones {
		if z.ID == 0 {
			return fmt.Errorf("zone '%s' has invalid ID 0", z.AreaName)
		}
		if zoneIDs[z.ID] {
			return fmt.Errorf("duplicate zone ID found: %d", z.ID)
		}
		zoneIDs[z.ID] = true
		if !ValidPincode(z.Pincode) {
			return fmt.Errorf("zone %d has invalid pincode %q", z.ID, z.Pincode)
		}
		if z.IsActive {
			if activePincodes[z.Pincode] {
				return fmt.Errorf("more than one active zone for pincode %s", z.Pincode)
			}
			activePincodes[z.Pincode] = true
		}
	}

	materials := make(map[string]bool)
	for _, r := range c.Rates {
		name := strings.TrimSpace(r.MaterialName)
		if name == "" {
			return fmt.Errorf("rate %d has empty material name", r.ID)
		}
		if materials[name] {
			return fmt.Errorf("duplicate material found: %s", name)
		}
		materials[name] = true
		if r.RatePerKg < 0 {
			return fmt.Errorf("material %s has negative rate", name)
		}
	}

	serviceIDs := make(map[int64]bool)
	for _, s := range c.Services {
		if s.ID == 0 {
			return fmt.Errorf("service '%s' has invalid ID 0", s.Name)
		}
		if serviceIDs[s.ID] {
			return fmt.Errorf("duplicate service ID found: %d", s.ID)
		}
		serviceIDs[s.ID] = true
	}
	return nil
}
