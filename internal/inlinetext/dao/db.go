package dao

import (
	"log/slog"
	"time"

	"github.com/aisa-it/inline-text/internal/inlinetext/config"
	"github.com/aisa-it/inline-text/internal/inlinetext/gormlogger"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// OpenDB открывает подключение к postgres или, для остальных строк подключения, к файлу sqlite.
//
// Параметры:
//   - cfg: конфигурация сервиса со строкой подключения и порогом медленных запросов.
//   - paramQueries: скрывать параметры запросов в логах.
//
// Возвращает:
//   - *gorm.DB: подключение с настроенным пулом.
//   - error: ошибка подключения.
func OpenDB(cfg *config.Config, paramQueries bool) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.NewGormLogger(slog.Default(), time.Duration(cfg.SlowQueryMs)*time.Millisecond, paramQueries),
	}

	var dialector gorm.Dialector
	if cfg.IsPostgres() {
		dialector = postgres.New(postgres.Config{DSN: cfg.DatabaseDSN})
	} else {
		dialector = sqlite.Open(cfg.DatabaseDSN)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.IsPostgres() {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(time.Hour)
		sqlDB.SetConnMaxIdleTime(time.Minute * 15)
	} else {
		// sqlite допускает одного писателя
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}
