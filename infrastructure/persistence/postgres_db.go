package persistence

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"social-reward-engine/infrastructure/configuration"

	_ "github.com/lib/pq"
)

// NewPostgreSQLDB opens the audit database on PostgreSQL.
func NewPostgreSQLDB() (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresDSN(configuration.C.Database.Psql))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// postgresDSN prefers an explicit URI. TLS is required off localhost.
func postgresDSN(cfg configuration.Db) string {
	if cfg.URI != "" {
		return cfg.URI
	}
	q := url.Values{}
	q.Set("sslmode", "disable")
	if cfg.Host != "localhost" && cfg.Host != "127.0.0.1" {
		q.Set("sslmode", "require")
	}
	u := &url.URL{Scheme: "postgres", Host: fmt.Sprintf("%s:%s", cfg.Host, cfg.Port), Path: "/" + cfg.Name}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
