package repository

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"stargifty/internal/client"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return client.InitSqliteClient(filepath.Join(t.TempDir(), "test.db"))
}
