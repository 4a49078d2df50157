package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"agentconsole/internal/endpoint"
	"agentconsole/internal/modelsapi"
)

func runModels(args []string) error {
	fs := flag.NewFlagSet("models", flag.ExitOnError)
	fs.Usage = func() { printModelsUsage(fs.Output()) }
	var flags consoleFlags
	flags.register(fs)
	fs.Parse(args)

	cfg, err := loadConfig(fs, &flags)
	if err != nil {
		return err
	}
	eps, err := endpoint.Derive(cfg.Endpoint())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	cat, err := modelsapi.New(modelsapi.Options{URL: eps.Models, Fallback: []string{cfg.DefaultModel}}).Fetch(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}
	for _, m := range cat.Models {
		fmt.Println(m)
	}
	if cat.Fallback {
		fmt.Fprintln(os.Stderr, "(fallback list; the backend did not provide models)")
	}
	return nil
}
