// cmd/reqdump/bootstrap.go
//
// Shared start-up for every sub-command.
//
// Order
// -----
//
//  1. Load config (defaults → .env → conf/global.yaml → ROUTING_ env →
//     vault: secrets).
//  2. Start the daily file logger.  CGI mode never tees, since stdout is
//     the response.
//  3. Open the GeoIP database when configured.  Failure is logged, not
//     fatal.
//  4. Open the session database and store when sessions are enabled.
//     Failure here is fatal: a misconfigured DSN should surface at once.
package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/routing/internal/config"
	"github.com/yanizio/routing/internal/database"
	"github.com/yanizio/routing/internal/logger"
	"github.com/yanizio/routing/internal/request"
	"github.com/yanizio/routing/internal/requestinfo"
	"github.com/yanizio/routing/internal/session"
)

// app is everything a sub-command needs after bootstrap.
type app struct {
	cfg *config.Config
	mc  request.MiddlewareConfig
	db  *sqlx.DB
}

// Close releases the session database and GeoIP reader.
func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
	requestinfo.CloseGeo()
	_ = zap.L().Sync()
}

func bootstrap(ctx context.Context, tee bool) (*app, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}

	logDir := cfg.Log.Dir
	if !filepath.IsAbs(logDir) {
		logDir = filepath.Join(cfg.Paths.Root, logDir)
	}
	if _, err := logger.New(logger.Options{Dir: logDir, Level: cfg.Log.Level, Tee: tee}); err != nil {
		return nil, err
	}

	if cfg.GeoIP.DBPath != "" {
		if err := requestinfo.OpenGeo(cfg.GeoIP.DBPath); err != nil {
			zap.S().Warnw("geoip database unavailable", "path", cfg.GeoIP.DBPath, "err", err)
		}
	}

	a := &app{cfg: cfg}
	var loader request.SessionLoader
	if cfg.Session.Enabled {
		db, err := database.Open(ctx, cfg.Session.DSN)
		if err != nil {
			zap.S().Errorw("session database unavailable", "err", err)
			return nil, err
		}
		store, err := session.NewSQLStore(db, cfg.Session.Table, cfg.Session.CacheTTL)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		a.db = db
		loader = &session.Loader{Store: store, CookieName: cfg.Session.CookieName}
		zap.S().Infow("session store online", "table", cfg.Session.Table)
	}

	a.mc = middlewareConfig(cfg.Request, loader)
	return a, nil
}

// middlewareConfig maps the request config section onto build options.
// Empty strings keep the built-in header defaults.
func middlewareConfig(rc config.Request, loader request.SessionLoader) request.MiddlewareConfig {
	defaults := map[string]string{}
	for key, val := range map[string]string{
		request.KeyServerName:     rc.ServerName,
		request.KeyServerPort:     rc.ServerPort,
		request.KeyAccept:         rc.Accept,
		request.KeyAcceptLanguage: rc.AcceptLanguage,
		request.KeyAcceptCharset:  rc.AcceptCharset,
		request.KeyUserAgent:      rc.UserAgent,
		request.KeyRemoteAddr:     rc.RemoteAddr,
	} {
		if val != "" {
			defaults[key] = val
		}
	}

	return request.MiddlewareConfig{
		HTTP: request.HTTPOptions{
			MaxBodyBytes: rc.MaxBodyBytes,
			MaxMemory:    rc.MaxMemory,
			Sessions:     loader,
		},
		Build: request.Options{
			Defaults:  defaults,
			Overrides: rc.Overrides,
			RawBody:   rc.RawBody,
		},
	}
}

// interactive reports whether stderr is a terminal.
func interactive() bool {
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
