package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"blinklean/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Config{
		Database: DatabaseConfig{Path: "path"},
		API:      APIConfig{Auth: APIAuthConfig{JWTSecret: "secret"}},
		Payment:  PaymentConfig{KeyID: "rzp_test", KeySecret: "shh"},
	}
	cfg.applyDefaults()
	return cfg
}

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("TEST_RZP_SECRET", "from-env")

	yamlContent := `
database:
  path: "test.db"
api:
  auth:
    jwt_secret: "jwt"
payment:
  key_id: "rzp_test_key"
  key_secret: "${TEST_RZP_SECRET}"
  timeout: 3s
admission:
  cooldown: 15s
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Payment.KeySecret)
	assert.Equal(t, 3*time.Second, cfg.Payment.Timeout)
	assert.Equal(t, 15*time.Second, cfg.Admission.Cooldown)
	assert.Equal(t, 10*time.Minute, cfg.Cache.EligibilityTTL)
	assert.Equal(t, "fixed", cfg.Payment.Pricing)
}

func TestLoadConfigWithDotEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	yamlContent := `
database:
  path: "test.db"
api:
  auth:
    jwt_secret: "${TEST_JWT_FROM_DOTENV}"
payment:
  key_id: "k"
  key_secret: "s"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))
	require.NoError(t, os.WriteFile(".env", []byte("TEST_JWT_FROM_DOTENV=dotenv-secret\n"), 0o644))
	defer os.Remove(".env")
	defer os.Unsetenv("TEST_JWT_FROM_DOTENV")

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "dotenv-secret", cfg.API.Auth.JWTSecret)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "missing database", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "missing jwt secret", mutate: func(c *Config) { c.API.Auth.JWTSecret = "" }, wantErr: true},
		{name: "missing key secret", mutate: func(c *Config) { c.Payment.KeySecret = "" }, wantErr: true},
		{name: "unknown pricing", mutate: func(c *Config) { c.Payment.Pricing = "auction" }, wantErr: true},
		{name: "predicted pricing", mutate: func(c *Config) { c.Payment.Pricing = "predicted" }},
		{name: "negative amount", mutate: func(c *Config) { c.Payment.FixedAmount = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	assert.Equal(t, 8081, cfg.API.GRPC.Port)
	assert.Equal(t, 8080, cfg.API.HTTP.Port)
	assert.Equal(t, "x-api-key", cfg.API.Auth.HeaderAPIKey)
	assert.Equal(t, 10*time.Second, cfg.Admission.Cooldown)
	assert.Equal(t, 10*time.Second, cfg.Payment.Timeout)
	assert.Equal(t, int64(models.DefaultOrderAmount), cfg.Payment.FixedAmount)
	assert.Equal(t, models.CurrencyINR, cfg.Payment.Currency)
	assert.Equal(t, models.PlatformApp, cfg.Payment.AllowedPlatform)
	assert.Equal(t, 5*time.Minute, cfg.Cache.ServicesTTL)
	assert.Equal(t, 5, cfg.Reconcile.MaxRetries)
}

func TestValidPincode(t *testing.T) {
	assert.True(t, ValidPincode("560040"))
	assert.False(t, ValidPincode("060040"))
	assert.False(t, ValidPincode("56004"))
	assert.False(t, ValidPincode("56004a"))
	assert.False(t, ValidPincode(""))
}

func TestValidateCatalog(t *testing.T) {
	tests := []struct {
		name    string
		catalog Catalog
		wantErr bool
	}{
		{
			name: "valid",
			catalog: Catalog{
				Zones:    []models.Zone{{ID: 1, Pincode: "560040", IsActive: true}, {ID: 2, Pincode: "560040"}},
				Rates:    []CatalogRate{{ID: 1, MaterialName: "Newspapers", RatePerKg: 15}},
				Services: []models.Service{{ID: 1, Name: "Scrap Pickup"}},
			},
		},
		{
			name:    "zone ID 0",
			catalog: Catalog{Zones: []models.Zone{{ID: 0, Pincode: "560040"}}},
			wantErr: true,
		},
		{
			name:    "bad pincode",
			catalog: Catalog{Zones: []models.Zone{{ID: 1, Pincode: "123"}}},
			wantErr: true,
		},
		{
			name: "two active zones for one pincode",
			catalog: Catalog{Zones: []models.Zone{
				{ID: 1, Pincode: "560040", IsActive: true},
				{ID: 2, Pincode: "560040", IsActive: true},
			}},
			wantErr: true,
		},
		{
			name: "duplicate material",
			catalog: Catalog{Rates: []CatalogRate{
				{ID: 1, MaterialName: "Metal", RatePerKg: 30},
				{ID: 2, MaterialName: "Metal", RatePerKg: 31},
			}},
			wantErr: true,
		},
		{
			name:    "negative rate",
			catalog: Catalog{Rates: []CatalogRate{{ID: 1, MaterialName: "Glass", RatePerKg: -1}}},
			wantErr: true,
		},
		{
			name: "duplicate service",
			catalog: Catalog{Services: []models.Service{
				{ID: 1, Name: "A"}, {ID: 1, Name: "B"},
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCatalog(&tt.catalog)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCatalog() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
