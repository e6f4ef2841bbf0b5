package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/kelseyhightower/envconfig"

	"github.com/rehabmetrics/gaitetl/pkg/api"
	"github.com/rehabmetrics/gaitetl/pkg/warehouse"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	var cfg api.Config
	if err := envconfig.Process("reportapi", &cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	db, err := warehouse.Open(cfg.WarehousePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	srv := api.NewServer(db, cfg.APIKey, logger)
	logger.Info("reporting facade listening", slog.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, srv.Routes()); err != nil {
		logger.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
