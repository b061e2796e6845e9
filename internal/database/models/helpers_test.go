package models_test

import (
	"testing"

	"github.com/robalyx/hivesync/internal/database/dbtest"
	"github.com/robalyx/hivesync/internal/database/models"
)

// client returns the post model of a fresh store.
func client(t *testing.T) *models.PostModel {
	t.Helper()
	return dbtest.NewClient(t).Model().Post()
}
