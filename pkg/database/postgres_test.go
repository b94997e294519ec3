package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/engagement-funnel/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "analyst",
		Password: "secret",
		Name:     "course_analytics",
		SSLMode:  "disable",
	})
	assert.Equal(t, "host=db port=5433 user=analyst password=secret dbname=course_analytics sslmode=disable", dsn)
}
