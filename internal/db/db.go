// Package db owns the gorm connection for the service.
package db

import (
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/lhawkeye71/ai-phone-agent/internal/dialogue"
)

// Connect opens the MySQL database and migrates the call schema. Storage is
// the one hard dependency; failing to reach it is fatal at startup.
func Connect(dsn string) *gorm.DB {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("database connect failed")
	}
	if err := gdb.AutoMigrate(&dialogue.CallSession{}, &dialogue.CustomerRecord{}); err != nil {
		log.Fatal().Err(err).Msg("database migrate failed")
	}
	return gdb
}
