// Package main runs the rota development relay server.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/felixge/httpsnoop"
	_ "github.com/mattn/go-sqlite3"

	"rota/internal/relayserver"
)

func main() {
	if err := run(); err != nil {
		slog.Error("exiting with error", "err", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "localhost:8999", "listen address")
	dbPath := flag.String("db", "rota-relay.sqlite3", "sqlite database path")
	flag.Parse()

	slog.Info("Opening database", "path", *dbPath)
	db, err := sql.Open("sqlite3", *dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	srv, err := relayserver.New(db, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to set up server: %w", err)
	}

	r := srv.Router()
	r.Use(func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			m := httpsnoop.CaptureMetrics(handler, w, req)
			slog.Info("handled", "method", req.Method, "path", req.URL.Path, "duration", m.Duration, "status", m.Code)
		})
	})

	httpServer := &http.Server{Addr: *addr, Handler: r}
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("Listening", "addr", *addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server stopped", "err", err)
		}
	}()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
	<-exit
	slog.Info("Signal caught, shutting down")
	httpServer.Close()
	wg.Wait()
	return nil
}
