// Package database turns a validated config.Config into a MySQL connection
// and answers one question about it: is there a WordPress install behind
// this prefix?
//
// Public entry points:
//
//	DSN(cfg)                          – driver DSN with charset and collation.
//	Open(ctx, dsn)                    – conservative pool, pinged before return.
//	Probe(ctx, db, schema, prefix)    – table count and siteurl for the prefix.
//
// Nothing in internal/config imports this package; opening a connection is
// always an explicit step taken by the CLI.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/AdeptTravel/wpenv/internal/config"
)

// DefaultPort is used when DB_HOST carries no port.
const DefaultPort = 3306

// DSN renders cfg as a go-sql-driver/mysql DSN.
func DSN(cfg *config.Config) (string, error) {
	host, port := cfg.HostPort()
	if port == 0 {
		port = DefaultPort
	}

	mc := mysql.NewConfig()
	mc.User = cfg.DBUser
	mc.Passwd = cfg.DBPassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	mc.Timeout = 5 * time.Second
	if err := mc.Apply(mysql.Charset(cfg.DBCharset, cfg.DBCollate)); err != nil {
		return "", fmt.Errorf("dsn options: %w", err)
	}
	return mc.FormatDSN(), nil
}

// Open returns a *sqlx.DB with a small pool: 4 open, 2 idle, and a
// 5-minute connection lifetime.  The pool is pinged before returning.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Install summarises what Probe found.
type Install struct {
	Tables  int    `json:"tables"   yaml:"tables"`
	Found   bool   `json:"found"    yaml:"found"`
	SiteURL string `json:"site_url" yaml:"site_url"`
}

// Probe counts the tables under prefix in schema and, when the options
// table exists, reads siteurl from it.  prefix must already have passed
// validation; it is interpolated into the options table name.
func Probe(ctx context.Context, db *sqlx.DB, schema, prefix string) (Install, error) {
	var out Install

	like := strings.ReplaceAll(prefix, "_", `\_`) + "%"
	if err := db.GetContext(ctx, &out.Tables,
		`SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = ? AND table_name LIKE ?`,
		schema, like); err != nil {
		return out, fmt.Errorf("count tables: %w", err)
	}

	var n int
	if err := db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = ? AND table_name = ?`,
		schema, prefix+"options"); err != nil {
		return out, fmt.Errorf("find options table: %w", err)
	}
	if n == 0 {
		return out, nil
	}
	out.Found = true

	q := "SELECT option_value FROM `" + prefix + "options` WHERE option_name = 'siteurl'"
	err := db.GetContext(ctx, &out.SiteURL, q)
	if errors.Is(err, sql.ErrNoRows) {
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("read siteurl: %w", err)
	}
	return out, nil
}
