// Command cineforged runs the watcher daemon in the foreground. It is the
// standalone equivalent of `cineforge daemon run` for service managers.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"cineforge/internal/config"
	"cineforge/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	logLevel := flag.String("log-level", "", "override configured log level")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{LogLevel: *logLevel}); err != nil {
		fmt.Fprintf(os.Stderr, "cineforged: %v\n", err)
		os.Exit(1)
	}
}
