package configlibsql

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Struct selects either a local sqlite file or a remote libsql database.
type Struct struct {
	File      string `json:"file" validate:"required_without=Url"`
	Url       string `json:"url" validate:"omitempty,url"`
	AuthToken string `json:"auth_token"`
}

func wrapOpenDB(err error) error {
	return fmt.Errorf("open db: %w", err)
}

func openLocal(path string) (*sql.DB, error) {
	if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0777)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapOpenDB(err)
	}

	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	if path != ":memory:" {
		_, err = db.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			return nil, wrapOpenDB(err)
		}
	}
	return db, nil
}

func openRemote(link, authToken string) (*sql.DB, error) {
	values := url.Values{}
	if authToken != "" {
		values.Add("authToken", authToken)
	}
	dsn := link
	if len(values) > 0 {
		dsn += "?" + values.Encode()
	}
	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, wrapOpenDB(err)
	}
	return db, nil
}

// OpenDB opens the configured database and applies the given schema.
// The schema must be idempotent (CREATE ... IF NOT EXISTS).
func (config Struct) OpenDB(schema string) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	if config.Url == "" {
		if config.File == "" {
			return nil, fmt.Errorf("a database file was not specified")
		}
		db, err = openLocal(config.File)
	} else {
		db, err = openRemote(config.Url, config.AuthToken)
	}
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(schema)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}
