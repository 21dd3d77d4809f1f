package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foxzi/backoffice/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE:  runConfigValidate,
}

func init() {
	configCmd.AddCommand(configValidateCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	fmt.Println("Configuration is valid")
	fmt.Printf("  Listen address:  %s\n", cfg.Server.ListenAddr)
	fmt.Printf("  TLS:             %v\n", cfg.Server.TLS.Enabled)
	fmt.Printf("  Admin API:       %s\n", cfg.API.BaseURL)
	if cfg.Waitlist.MongoURI != "" {
		fmt.Printf("  Waitlist store:  %s.%s (server search: %v)\n", cfg.Waitlist.Database, cfg.Waitlist.Collection, cfg.Waitlist.ServerSearch)
	} else {
		fmt.Printf("  Waitlist store:  not configured\n")
	}
	fmt.Printf("  Sessions:        %s (ttl %s)\n", cfg.Sessions.Backend, cfg.Sessions.TTL)
	if cfg.Metrics.Enabled {
		fmt.Printf("  Metrics:         %s%s\n", cfg.Metrics.ListenAddr, cfg.Metrics.Path)
	}
	if len(cfg.Server.AllowedIPs) > 0 {
		fmt.Printf("  Allowed IPs:     %d entries\n", len(cfg.Server.AllowedIPs))
	}
	if len(cfg.Server.TrustedProxies) > 0 {
		fmt.Printf("  Trusted proxies: %d entries\n", len(cfg.Server.TrustedProxies))
	}

	return nil
}
