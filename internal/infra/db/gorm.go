package db

import (
	"context"
	"fmt"
	"log/slog"

	"haritsattva/internal/config"
	"haritsattva/internal/domain/model"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DSNを組み立てる（DSNがあれば最優先）
func DSN(cfg config.Postgres) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	ssl := cfg.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, port, cfg.User, cfg.Password, cfg.DB, ssl,
	)
}

// Connect はDBに接続して *gorm.DB を返す。
func Connect(cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	gormDB, err := gorm.Open(postgres.Open(DSN(cfg.Postgres)), &gorm.Config{
		Logger:         newGormSlogLogger(logger, cfg.Env.Debug),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "gorm.Open")
	}
	return gormDB, nil
}

// New はfx用。停止時にコネクションを閉じる
func New(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	gormDB, err := Connect(cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Postgres.AutoMigrate {
		if err := Migrate(gormDB); err != nil {
			return nil, err
		}
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := gormDB.DB()
			if err != nil {
				return errors.Wrap(err, "gormDB.DB")
			}
			return sqlDB.Close()
		},
	})
	return gormDB, nil
}

// スキーマ作成
func Migrate(gormDB *gorm.DB) error {
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Address{},
		&model.Category{},
		&model.Product{},
		&model.Order{},
		&model.OrderLine{},
		&model.Payment{},
		&model.AuditLog{},
	); err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	return nil
}
