package database

import (
	"time"

	"go-storefront/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ConnectDB opens the Postgres pool. It exits the process when the database
// is unreachable, matching how the API refuses to start without its store.
func ConnectDB(dsn string, log *zap.Logger, verbose bool) *gorm.DB {
	level := gormlogger.Warn
	if verbose {
		level = gormlogger.Info
	}

	newLogger := gormlogger.New(
		logger.StdLog(log),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // pgbouncer / transaction pooling friendly
	}), &gorm.Config{
		Logger:      newLogger,
		PrepareStmt: false,
		// Orphaned category references are tolerated, so no FK constraints.
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to obtain sql.DB", zap.Error(err))
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("Database connection established")
	return db
}
