// Package logging builds the zap logger shared by every component.
package logging

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// New returns a JSON production logger in production and a console
// development logger otherwise.
func New(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// GormLogger routes gorm's SQL log through zap.
func GormLogger(log *zap.Logger, production bool) logger.Interface {
	level := logger.Info
	if production {
		level = logger.Warn
	}
	return logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      production,
			Colorful:                  false,
		},
	)
}
