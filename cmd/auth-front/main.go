package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/auth-front/auth-front/internal"
	"github.com/auth-front/auth-front/internal/config"
	"github.com/auth-front/auth-front/internal/log"
)

var BuildVersion = "dev"

func generateDefaultConfig(path string) error {
	defaultConfig := map[string]any{
		"server": map[string]any{
			"addr":           ":8080",
			"baseURL":        "https://proxy.yourcompany.com",
			"errorURL":       "https://app.yourcompany.com/auth-error",
			"allowedOrigins": []string{"https://app.yourcompany.com"},
		},
		"oauth": map[string]any{
			"clientId":      map[string]string{"$env": "OAUTH_CLIENT_ID"},
			"clientSecret":  map[string]string{"$env": "OAUTH_CLIENT_SECRET"},
			"issuer":        "https://auth.yourcompany.com",
			"defaultScopes": []string{"openid", "email"},
		},
		"upstream": map[string]any{
			"url":     "http://localhost:3000",
			"timeout": "30s",
		},
	}

	data, err := json.MarshalIndent(defaultConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func main() {
	conf := flag.String("config", "", "path to config file (required)")
	version := flag.Bool("version", false, "print version and exit")
	help := flag.Bool("help", false, "print help and exit")
	configInit := flag.String("config-init", "", "generate default config file at specified path")
	flag.Parse()
	if *help {
		flag.Usage()
		return
	}
	if *version {
		fmt.Println(BuildVersion)
		return
	}
	if *configInit != "" {
		if err := generateDefaultConfig(*configInit); err != nil {
			log.LogError("Failed to generate config: %v", err)
			os.Exit(1)
		}
		fmt.Printf("Generated default config at: %s\n", *configInit)
		return
	}

	if *conf == "" {
		fmt.Fprintf(os.Stderr, "Error: -config flag is required\n")
		fmt.Fprintf(os.Stderr, "Run with -help for usage information\n")
		os.Exit(1)
	}

	cfg, err := config.Load(*conf)
	if err != nil {
		log.LogError("Failed to load config: %v", err)
		os.Exit(1)
	}

	log.LogInfoWithFields("main", "Starting auth-front", map[string]any{
		"version": BuildVersion,
		"config":  *conf,
	})

	ctx := context.Background()
	authFront, err := internal.NewAuthFront(ctx, cfg)
	if err != nil {
		log.LogError("Failed to create proxy: %v", err)
		os.Exit(1)
	}

	if err := authFront.Run(); err != nil {
		log.LogError("Failed to start server: %v", err)
		os.Exit(1)
	}
}
