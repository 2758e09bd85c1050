// README: Operator CLI for the admin API; pickup board, stats, and user directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"

	"vdrop/internal/console"
)

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	client := console.NewClient(cfg.BaseURL, cfg.Token, cfg.Timeout)
	if err := run(ctx, client, os.Stdout, args[0], args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() Config {
	var cfg Config
	flag.StringVar(&cfg.BaseURL, "base-url", envOrDefault("VDROP_ADMIN_BASE_URL", "http://localhost:8080"), "API base URL")
	flag.StringVar(&cfg.Token, "token", envOrDefault("VDROP_ADMIN_TOKEN", ""), "Admin ID token")
	flag.DurationVar(&cfg.Timeout, "timeout", envOrDefaultDuration("VDROP_ADMIN_TIMEOUT", 30*time.Second), "Total timeout")
	flag.Usage = usage
	flag.Parse()
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: vdrop-admin [-base-url URL] [-token TOKEN] [-timeout D] <command> [args]

commands:
  stats
  pickups [-status S] [-q TEXT]
  transition <id> <status>
  users [-role R] [-q TEXT]
  set-role <id> <role>
  deactivate <id>
  invite <email> [-name NAME] [-role R]`)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := cast.ToDurationE(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
