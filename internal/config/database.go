package config

import (
	"fmt"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Databases hands out one gorm handle per Supabase environment. Handles are
// opened lazily on first use so a service can run with only the environments
// it has credentials for.
type Databases struct {
	cfg *Config

	mu      sync.Mutex
	handles map[string]*gorm.DB
}

func NewDatabases(cfg *Config) *Databases {
	return &Databases{
		cfg:     cfg,
		handles: make(map[string]*gorm.DB),
	}
}

// For returns the gorm handle for the given environment, opening the
// connection on first use.
func (d *Databases) For(env string) (*gorm.DB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if db, ok := d.handles[env]; ok {
		return db, nil
	}

	sc, err := d.cfg.SupabaseFor(env)
	if err != nil {
		return nil, err
	}
	if sc.DSN == "" {
		return nil, fmt.Errorf("no database DSN configured for environment %s", env)
	}

	logLevel := logger.Silent
	if d.cfg.Server.Debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(sc.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", env, err)
	}

	d.handles[env] = db
	return db, nil
}
