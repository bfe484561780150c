package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/chatrouter/internal/transport/bridge"
)

var reauthCmd = &cobra.Command{
	Use:   "reauth",
	Short: "Re-trigger the bridge channel's pairing flow (e.g. a fresh QR code).",
	RunE: func(*cobra.Command, []string) error {
		baseURL := viper.GetString("bridge-base-url")
		if baseURL == "" {
			return fmt.Errorf("router: reauth requires --bridge-base-url (telegram has no pairing flow)")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// A bare Client, not a Channel: Channel construction health-checks
		// an already-connected session, which is exactly what reauth is
		// for when there isn't one.
		client := bridge.NewClient(baseURL, viper.GetString("bridge-api-key"))
		pairing, err := client.Reauth(ctx)
		if err != nil {
			return fmt.Errorf("router: reauth: %w", err)
		}
		fmt.Println("Pairing info:")
		fmt.Println(pairing)
		return nil
	},
}
