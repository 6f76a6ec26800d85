package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	"textchat/internal/admin"
	"textchat/internal/dispatch"
	"textchat/internal/metrics"
	"textchat/internal/registry"
	"textchat/internal/server"
)

func main() {
	adminAddr := flag.String("admin", "", "address for the HTTP ops API (disabled when empty)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "USAGE: %s <PORT> [-admin addr] [-debug]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	port, err := strconv.Atoi(flag.Arg(0))
	if err != nil || port < 1 || port > 65535 {
		fmt.Fprintf(os.Stderr, "invalid port %q\n", flag.Arg(0))
		os.Exit(1)
	}

	logCfg := zap.NewProductionConfig()
	if *debug {
		logCfg = zap.NewDevelopmentConfig()
	}
	log, err := logCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	reg := registry.New(log)
	m := metrics.New()
	disp := dispatch.New(reg, m, log)
	srv := server.New(reg, disp, m, log)

	if err := srv.Listen(fmt.Sprintf(":%d", port)); err != nil {
		log.Fatal("bind failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *adminAddr != "" {
		go admin.New(reg, m, log).Run(ctx, *adminAddr)
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		cancel()
		srv.Close()
	}()

	if err := srv.Serve(); err != nil {
		log.Fatal("serve failed", zap.Error(err))
	}
	log.Info("server stopped")
}
