package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/fieldlens/photoverify/internal/platform/envutil"
	"github.com/fieldlens/photoverify/internal/platform/logger"
)

// StoreService owns the GORM handle for the verification/cache store.
// The DSN picks the driver: postgres:// connects to Postgres, anything
// else is treated as a SQLite file path (the store the system originally
// ran on).
type StoreService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStoreService(logg *logger.Logger) (*StoreService, error) {
	serviceLog := logg.With("service", "StoreService")

	dsn := envutil.String("VERIFY_DB_DSN", "data/verifications.db")

	handle, err := Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open verify store: %w", err)
	}

	serviceLog.Info("verify store opened", "dsn_kind", driverKind(dsn))
	return &StoreService{db: handle, log: serviceLog}, nil
}

// Open connects to a DSN, picking the GORM driver by scheme. Used for the
// verify store and for each project's photo-source database.
func Open(dsn string) (*gorm.DB, error) {
	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	cfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return gorm.Open(postgres.Open(dsn), cfg)
	}
	return gorm.Open(sqlite.Open(dsn), cfg)
}

func (s *StoreService) DB() *gorm.DB { return s.db }

func (s *StoreService) AutoMigrateAll() error {
	return AutoMigrateAll(s.db)
}

func driverKind(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	return "sqlite"
}
