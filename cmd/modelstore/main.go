/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/goccy/go-json"

	"github.com/suparena/modelstore"
	"github.com/suparena/modelstore/config"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/logger"
	"github.com/suparena/modelstore/request"

	_ "github.com/suparena/modelstore/proxy/ddb"
	_ "github.com/suparena/modelstore/proxy/memory"
	_ "github.com/suparena/modelstore/proxy/rest"
	_ "github.com/suparena/modelstore/proxy/webstorage"
)

var (
	versionFlag  = flag.Bool("version", false, "Show version information")
	vFlag        = flag.Bool("v", false, "Show version information (short)")
	configFlag   = flag.String("config", "modelstore.yaml", "Path to the configuration file")
	proxyFlag    = flag.String("proxy", "", "Name of the configured proxy to read from")
	idFlag       = flag.String("id", "", "Read a single record by id")
	pageFlag     = flag.Int("page", 0, "1-based page number (with -pagesize)")
	pageSizeFlag = flag.Int("pagesize", 0, "Records per page (with -page)")
	startFlag    = flag.Int("start", 0, "Offset of the first record")
	limitFlag    = flag.Int("limit", 0, "Maximum number of records, 0 for all")
)

type output struct {
	Records []map[string]any `json:"records"`
	Total   int              `json:"total"`
}

func main() {
	flag.Parse()

	if *versionFlag || *vFlag {
		info := modelstore.GetVersionInfo()
		fmt.Printf("ModelStore version %s\n", info.Version)
		fmt.Printf("Git commit: %s\n", info.GitCommit)
		fmt.Printf("Build date: %s\n", info.BuildDate)
		fmt.Printf("Go version: %s\n", info.GoVersion)
		os.Exit(0)
	}

	os.Exit(run(os.Stdout))
}

func run(stdout io.Writer) int {
	if *proxyFlag == "" {
		fmt.Fprintln(os.Stderr, "Error: -proxy is required")
		flag.Usage()
		return 2
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	log, flush := logger.Init(cfg.Logging.Level, logger.ParseFormat(cfg.Logging.Format))
	defer flush()

	store, err := modelstore.NewStorageFromConfig(cfg, modelstore.WithLogger(log))
	if err != nil {
		log.Errorw("Failed to create proxies", "error", err)
		return 1
	}

	readCfg := request.ReadConfig{
		Page:     *pageFlag,
		PageSize: *pageSizeFlag,
		Start:    *startFlag,
		Limit:    *limitFlag,
	}
	if *idFlag != "" {
		readCfg.ModelID = *idFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	op, err := store.Read(context.Background(), *proxyFlag, readCfg)
	if err != nil {
		log.Errorw("Failed to start read", "proxy", *proxyFlag, "error", err)
		return 1
	}
	go func() {
		select {
		case <-ctx.Done():
			log.Infow("Interrupted, aborting read")
			op.Abort()
		case <-op.Settled():
		}
	}()

	if err := op.Wait(context.Background()); err != nil {
		if errors.IsAborted(err) {
			return 130
		}
		log.Errorw("Read failed", "proxy", *proxyFlag, "error", err)
		return 1
	}

	rs := op.ResultSet()
	out := output{Records: rs.Records(), Total: rs.TotalCount()}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Errorw("Failed to write output", "error", err)
		return 1
	}
	return 0
}
