// Package bootstrap wires the process-level dependencies shared by the commands.
package bootstrap

import (
	"fmt"
	"log"

	"formstack/internal/cache"
	"formstack/internal/config"
	"formstack/internal/database"
	"formstack/internal/models"
	"formstack/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo fills an empty development database with demo data.
	SeedDemo bool
}

// InitRuntime connects to DB and Redis and optionally seeds demo data.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SeedDemo {
		if err := seedDemo(cfg, db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

func seedDemo(cfg *config.Config, db *gorm.DB) error {
	if cfg.IsProduction() {
		log.Println("demo seeding skipped in production")
		return nil
	}

	var users int64
	if err := db.Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		return nil
	}

	_, err := seed.Seed(db, seed.Options{
		NumUsers:             3,
		TemplatesPerUser:     len(seed.TemplatePresets),
		EmployeesPerTemplate: 15,
	})
	return err
}
