package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/chatrouter/internal/orchestrator"
	"github.com/hrygo/chatrouter/internal/profile"
	"github.com/hrygo/chatrouter/internal/version"
	"github.com/hrygo/chatrouter/store"
	"github.com/hrygo/chatrouter/store/db"
)

var rootCmd = &cobra.Command{
	Use:   "router",
	Short: "Runs a group chat's scheduled-task and sandboxed-agent assistant.",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// Systemd already populates the environment (see /etc/router/config);
		// a .env file is only for direct binary execution.
		if !isRunningAsSystemdService() {
			_ = godotenv.Load()
		}
		if cfg, _ := cmd.Flags().GetString("config"); cfg != "" {
			viper.SetConfigFile(cfg)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("router: read config file %s: %w", cfg, err)
			}
		}
		return nil
	},
	RunE: runServe,
}

func buildProfile() *profile.Profile {
	return &profile.Profile{
		Driver:                 viper.GetString("driver"),
		DSN:                    viper.GetString("dsn"),
		DataDir:                viper.GetString("data-dir"),
		GroupsDir:              viper.GetString("groups-dir"),
		AssistantName:          viper.GetString("assistant-name"),
		BridgeBaseURL:          viper.GetString("bridge-base-url"),
		BridgeAPIKey:           viper.GetString("bridge-api-key"),
		BridgeWebhookAddr:      viper.GetString("bridge-webhook-addr"),
		BridgeSigningKey:       viper.GetString("bridge-signing-key"),
		TelegramBotToken:       viper.GetString("telegram-bot-token"),
		ContainerImage:         viper.GetString("container-image"),
		MountAllowlistPath:     viper.GetString("mount-allowlist"),
		AdminAddr:              viper.GetString("admin-addr"),
		EmbeddingsBaseURL:      viper.GetString("embeddings-base-url"),
		EmbeddingsAPIKey:       viper.GetString("embeddings-api-key"),
		EmbeddingsModel:        viper.GetString("embeddings-model"),
		ExternalCLIConfigPath:  viper.GetString("external-cli-config"),
		VideoTranscriptCLIPath: viper.GetString("video-transcript-cli"),
	}
}

func runServe(*cobra.Command, []string) error {
	p := buildProfile()
	if err := p.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	driver, err := db.New(ctx, p.Driver, p.DSN)
	if err != nil {
		return fmt.Errorf("router: open store: %w", err)
	}
	st := store.New(driver)
	defer st.Close()

	channel, err := newChannel(ctx, p, slog.Default())
	if err != nil {
		return err
	}

	orch, err := orchestrator.New(ctx, p, st, channel, slog.Default())
	if err != nil {
		return fmt.Errorf("router: assemble orchestrator: %w", err)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, terminationSignals...)
	go func() {
		<-c
		slog.Info("router: shutdown signal received")
		if err := orch.Shutdown(ctx); err != nil {
			slog.Error("router: shutdown error", "err", err)
		}
		cancel()
	}()

	printGreeting(p)

	if err := orch.Start(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("router: %w", err)
	}
	return nil
}

func printGreeting(p *profile.Profile) {
	fmt.Printf("router %s started\n", version.Version)
	fmt.Printf("data directory: %s\n", p.DataDir)
	fmt.Printf("store driver: %s\n", p.Driver)
	fmt.Printf("admin surface: http://%s/healthz, http://%s/metrics\n", p.AdminAddr, p.AdminAddr)
}

// isRunningAsSystemdService detects if the process is running under systemd.
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

func init() {
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("assistant-name", "bhai")
	viper.SetDefault("admin-addr", "127.0.0.1:9090")

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "optional YAML config file (overridden by flags and ROUTER_* env vars)")
	flags.String("driver", "sqlite", "store driver: sqlite or postgres")
	flags.String("dsn", "", "store data source name")
	flags.String("data-dir", "", "directory for ipc/, kb-locks/ and kb-feeds/")
	flags.String("groups-dir", "", "directory holding groups/<folder>/CLAUDE.md and logs/")
	flags.String("assistant-name", "bhai", "name prefixed to outbound replies")
	flags.String("bridge-base-url", "", "WhatsApp-style bridge process base URL")
	flags.String("bridge-api-key", "", "bridge REST API key")
	flags.String("bridge-webhook-addr", "", "local address the bridge posts inbound messages to")
	flags.String("bridge-signing-key", "", "HMAC/JWT key shared with the bridge")
	flags.String("telegram-bot-token", "", "Telegram bot token (alternate channel)")
	flags.String("container-image", "", "sandbox agent container image")
	flags.String("mount-allowlist", "", "path to the container mount allowlist file")
	flags.String("admin-addr", "127.0.0.1:9090", "address for /healthz and /metrics")
	flags.String("embeddings-base-url", "", "OpenAI-compatible embeddings endpoint")
	flags.String("embeddings-api-key", "", "embeddings provider API key")
	flags.String("embeddings-model", "", "embeddings model name")
	flags.String("external-cli-config", "", "path to the external CLI tool allowlist")
	flags.String("video-transcript-cli", "", "path to the video transcript extraction CLI")

	for _, name := range []string{
		"driver", "dsn", "data-dir", "groups-dir", "assistant-name",
		"bridge-base-url", "bridge-api-key", "bridge-webhook-addr", "bridge-signing-key",
		"telegram-bot-token", "container-image", "mount-allowlist", "admin-addr",
		"embeddings-base-url", "embeddings-api-key", "embeddings-model",
		"external-cli-config", "video-transcript-cli",
	} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("ROUTER")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	rootCmd.AddCommand(statusCmd, reauthCmd, &cobra.Command{Use: "serve", Short: "Run every polling loop until interrupted", RunE: runServe})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("router: fatal", "err", err)
		os.Exit(1)
	}
}
