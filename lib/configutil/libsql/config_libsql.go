package configlibsql

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	devenv "rankwatch/dev/env"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Struct selects a local sqlite file or a remote libsql database. Url takes
// precedence when both are set.
type Struct struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (config Struct) openFile() (*sql.DB, error) {
	if config.File == "" {
		return nil, fmt.Errorf("neither a database file nor url was specified")
	}
	if config.File == ":memory:" {
		db, err := sql.Open("sqlite", config.File)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(1)
		return db, nil
	}

	dbpath, err := devenv.ResolvePath(config.File)
	if err != nil {
		return nil, err
	}
	_, statErr := os.Stat(dbpath)
	if os.IsNotExist(statErr) {
		f, err := os.Create(dbpath)
		if err != nil {
			return nil, err
		}
		f.Close()
	}

	db, err := sql.Open("sqlite", dbpath)
	if err != nil {
		return nil, err
	}
	// sqlite only allows one writer at a time
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (config Struct) OpenDB() (*sql.DB, error) {
	if config.Url == "" {
		return config.openFile()
	}

	target := config.Url
	if config.AuthToken != "" {
		values := url.Values{}
		values.Add("authToken", config.AuthToken)
		target += "?" + values.Encode()
	}
	return sql.Open("libsql", target)
}
