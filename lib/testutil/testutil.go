package testutil

import (
	"database/sql"
	"fmt"
	"pollofpolls-backend/lib/telemetry"
	"testing"

	_ "modernc.org/sqlite"
)

type ServiceParams struct {
	Name string
	// if unspecified, it will skip setting up a db
	DbSchema string
}

type ServiceResult struct {
	DB *sql.DB
}

// SetupService sets up telemetry and an in-memory sqlite database with the
// given schema applied.
func SetupService(t testing.TB, params ServiceParams) (ServiceResult, func()) {
	cleanup := telemetry.SetupForTesting(fmt.Sprintf("test:%s", params.Name))
	if params.DbSchema == "" {
		return ServiceResult{}, cleanup
	}

	sqlite, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// every connection to :memory: is a separate database
	sqlite.SetMaxOpenConns(1)
	_, err = sqlite.Exec(params.DbSchema)
	if err != nil {
		t.Fatal(err)
	}

	return ServiceResult{
			DB: sqlite,
		}, func() {
			sqlite.Close()
			cleanup()
		}
}
