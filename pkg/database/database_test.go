package database

import (
	"testing"
	"time"

	"github.com/Queneri/catalogotefi/pkg/config"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func TestInitDB_Unreachable(t *testing.T) {
	db, err := InitDB(&config.DBConfig{
		Host:            "127.0.0.1",
		Port:            "1",
		User:            "postgres",
		Password:        "password",
		DBName:          "catalog",
		SSLMode:         "disable",
		MaxIdleConns:    1,
		MaxOpenConns:    1,
		ConnMaxLifetime: time.Minute,
		LogLevel:        logger.Silent,
	})
	assert.Nil(t, db)
	assert.ErrorContains(t, err, "connect to database")
}
