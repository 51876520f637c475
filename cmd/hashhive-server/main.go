package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"hashhive-server-go/internal/bootstrap"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to ./config.yaml)")
	flag.Parse()

	if err := bootstrap.Run(context.Background(), bootstrap.Options{ConfigPath: *configPath}); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "hashhive-server failed: %v\n", err)
		os.Exit(1)
	}
}
