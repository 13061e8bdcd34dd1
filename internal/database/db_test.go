package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestBuildDSN checks the full form including the charset, parseTime and
// UTC location options the availability queries rely on.
func TestBuildDSN(t *testing.T) {
	got := buildDSN("app", "pw", "db", "3306", "reservations")
	assert.Equal(t, "app:pw@tcp(db:3306)/reservations?charset=utf8mb4&parseTime=true&loc=UTC", got)
}

// TestBuildDSNEmptyPassword checks that an empty password drops the
// colon separator instead of producing "user:@tcp".
func TestBuildDSNEmptyPassword(t *testing.T) {
	got := buildDSN("app", "", "db", "3306", "reservations")
	assert.Equal(t, "app@tcp(db:3306)/reservations?charset=utf8mb4&parseTime=true&loc=UTC", got)
}
