package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the running router's loop health from its admin surface.",
	RunE: func(*cobra.Command, []string) error {
		addr := viper.GetString("admin-addr")
		client := &http.Client{Timeout: 5 * time.Second}
		resp, err := client.Get("http://" + addr + "/healthz")
		if err != nil {
			return fmt.Errorf("router: contact %s: %w (is `router serve` running?)", addr, err)
		}
		defer resp.Body.Close()

		var loops map[string]struct {
			Running  bool      `json:"running"`
			LastTick time.Time `json:"last_tick"`
			LastErr  string    `json:"last_err,omitempty"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&loops); err != nil {
			return fmt.Errorf("router: decode health response: %w", err)
		}

		for name, s := range loops {
			state := "stopped"
			if s.Running {
				state = "running"
			}
			fmt.Printf("%-12s %-8s last_tick=%s", name, state, s.LastTick.Format(time.RFC3339))
			if s.LastErr != "" {
				fmt.Printf(" last_err=%q", s.LastErr)
			}
			fmt.Println()
		}
		return nil
	},
}
