package repo

import (
	"Cookbook/internal/model"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// InitDB открывает соединение с БД и применяет миграции.
// DSN вида "file:..." или "*.db" открывается через sqlite (локальная разработка),
// всё остальное считается строкой подключения Postgres.
func InitDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("empty database dsn")
	}

	cfg := &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: nowUTC,
	}

	var (
		db  *gorm.DB
		err error
	)
	if isSQLiteDSN(dsn) {
		db, err = OpenSQLite(dsn, cfg)
	} else {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	if !isSQLiteDSN(dsn) {
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenSQLite открывает sqlite через драйвер modernc.org/sqlite (без cgo).
func OpenSQLite(dsn string, cfg *gorm.Config) (*gorm.DB, error) {
	if cfg == nil {
		cfg = &gorm.Config{}
	}
	if cfg.NowFunc == nil {
		cfg.NowFunc = nowUTC
	}
	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}
	// одна запись за раз: sqlite не любит конкурентные транзакции
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Migrate создаёт таблицы и индексы для всех моделей.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Draft{}, &model.Recipe{}, &model.Blob{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	// индекс для поиска черновика по (владелец, заголовок)
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_drafts_user_title ON drafts (user_id, title)").Error; err != nil {
		return fmt.Errorf("create drafts title index: %w", err)
	}
	return nil
}

func nowUTC() time.Time { return time.Now().UTC() }

func isSQLiteDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "file:") || strings.HasSuffix(dsn, ".db") || dsn == ":memory:"
}
