package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"blinklean/internal/config"
	"blinklean/internal/domain"
	"blinklean/internal/logging"
	"blinklean/internal/repository"
	"blinklean/internal/service"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load zones, rates and services from the catalog file",
	Long: `Upserts zones and services from the catalog. Rates are written only into an
empty rate table so operator changes survive. Eligibility and service caches are flushed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalogPath, _ := cmd.Flags().GetString("catalog")

		data, err := os.ReadFile(catalogPath)
		if err != nil {
			return fmt.Errorf("read catalog: %w", err)
		}
		var catalog config.Catalog
		if err := yaml.Unmarshal(data, &catalog); err != nil {
			return fmt.Errorf("parse catalog: %w", err)
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		store, closeStore := openStore(ctx, e)
		defer closeStore()

		zones := service.NewZoneService(e.db, store, e.cfg.Cache.EligibilityTTL, nil)
		catalogSvc := service.NewCatalogService(e.db, zones, store, e.cfg.Cache.ServicesTTL, logging.Component(e.logger, "catalog"))
		res, err := catalogSvc.Seed(ctx, &catalog)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "zones: %d, rates: %d, services: %d\n", res.Zones, res.Rates, res.Services)
		return nil
	},
}

// openStore connects to Redis when configured so cache flushes reach the running API.
func openStore(ctx context.Context, e *env) (domain.Store, func()) {
	if e.cfg.Redis.Address == "" {
		return repository.NewMemoryStore(time.Minute), func() {}
	}
	client := repository.NewRedisClient(e.cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		e.logger.Warn().Err(err).Msg("redis unavailable; caches were not flushed")
		_ = client.Close()
		return repository.NewMemoryStore(time.Minute), func() {}
	}
	return repository.NewRedisStore(client), func() { _ = client.Close() }
}

func init() {
	defaultCatalog := os.Getenv("CATALOG_PATH")
	if defaultCatalog == "" {
		defaultCatalog = "configs/catalog.yaml"
	}
	seedCmd.Flags().String("catalog", defaultCatalog, "path to catalog.yaml")
	rootCmd.AddCommand(seedCmd)
}
