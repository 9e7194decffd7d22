package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/guardian/internal/adminctl"
	"github.com/dmitrijs2005/guardian/internal/logging"
	"github.com/dmitrijs2005/guardian/internal/server/config"
)

func main() {

	global, command, rest, err := adminctl.SplitArgs(os.Args[1:])
	if err != nil {
		fmt.Fprint(os.Stderr, adminctl.Usage)
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load(global)
	logger := logging.New(os.Stderr, cfg.LogLevel, "text")

	admin, err := adminctl.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	err = adminctl.NewRunner(admin, os.Stdout).Run(ctx, command, rest)
	_ = admin.Close()

	if err != nil {
		if errors.Is(err, adminctl.ErrUsage) {
			fmt.Fprint(os.Stderr, adminctl.Usage)
		}
		log.Fatalf("%v", err)
	}

}
