package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/dmitrijs2005/placementtracker/internal/cli"
	"github.com/dmitrijs2005/placementtracker/internal/logging"
	"github.com/dmitrijs2005/placementtracker/internal/server"
	"github.com/dmitrijs2005/placementtracker/internal/server/config"
)

func main() {

	ctx := context.Background()
	args := os.Args[1:]

	global, _, _, ok := cli.SplitArgs(args)
	if !ok {
		cli.NewApp(nil, os.Stderr).Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(global)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	st, err := server.OpenStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer st.Close()

	logger := logging.New(cfg.Env, os.Stderr)
	as, _ := server.NewAuthService(cfg, st, logger)

	if err := cli.NewApp(as, os.Stdout).Run(ctx, args); err != nil {
		if !errors.Is(err, cli.ErrUsage) {
			log.Printf("%v", err)
		}
		st.Close()
		os.Exit(1)
	}

}
