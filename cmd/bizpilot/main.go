// bizpilot is a conversational assistant for a business-productivity
// platform. The CLI fronts the dialogue orchestration pipeline with an
// interactive chat TUI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bizpilot/cmd/bizpilot/chat"
	"bizpilot/internal/articulation"
	"bizpilot/internal/config"
	"bizpilot/internal/logging"
	"bizpilot/internal/perception"
	"bizpilot/internal/session"
	"bizpilot/internal/store"
	"bizpilot/internal/types"
)

var version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "bizpilot",
		Short: "Conversational assistant for your business pipeline",
		Long: `bizpilot routes free-text requests to specialist agents for scheduling,
content creation, transactions, leads, and business advice.

Run without arguments to start an interactive chat session.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(),
		"path to the config file")

	root.AddCommand(chatCmd(&configPath))
	root.AddCommand(clearCmd(&configPath))
	root.AddCommand(versionCmd())
	return root
}

func chatCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(*configPath)
		},
	}
}

func clearCmd(configPath *string) *cobra.Command {
	var agent, user string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear a stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			db, err := store.Open(cfg.Session.DatabasePath)
			if err != nil {
				return err
			}
			defer db.Close()

			domain := types.ParseAgentDomain(agent)
			if err := db.Clear(context.Background(), domain, user); err != nil {
				return err
			}
			fmt.Printf("Cleared session for %s:%s\n", domain, user)
			return nil
		},
	}
	cmd.Flags().StringVar(&agent, "agent", string(types.AgentCopilot), "agent domain of the session")
	cmd.Flags().StringVar(&user, "user", defaultUserID(), "user id of the session")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the bizpilot version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("bizpilot %s\n", version)
		},
	}
}

// runChat boots the pipeline and hands control to the TUI.
func runChat(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := logging.Initialize(cfg.Logging.Directory, cfg.Logging.Debug); err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging unavailable: %v\n", err)
	}
	defer logging.Sync()
	logging.Boot("bizpilot %s starting", version)

	db, err := store.Open(cfg.Session.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer db.Close()

	if n, err := db.Sweep(context.Background(), cfg.SessionTTL()); err != nil {
		logging.StoreWarn("session sweep failed: %v", err)
	} else if n > 0 {
		logging.Boot("swept %d expired sessions", n)
	}

	var llm perception.LLMClient
	client, err := perception.NewClient(perception.ProviderConfig{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
		Timeout:  cfg.LLMTimeout(),
	})
	if err != nil {
		// No API key means no fallback classifier and no generation; the
		// rule matcher still works, so chat stays usable for routing.
		logging.BootWarn("LLM client unavailable: %v", err)
	} else {
		llm = client
	}

	orch := session.NewOrchestrator(
		perception.NewMatcher(cfg.ResolveTaxonomy()),
		perception.NewFallbackClassifier(llm),
		perception.NewExpander(),
		articulation.NewComposer(),
		db,
		chat.NewLLMInvoker(llm),
		session.Config{
			FallbackThreshold: perception.ProceedThreshold,
			HistoryLimit:      cfg.Session.HistoryLimit,
		},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.TaxonomyPath != "" {
		watcher, err := config.NewTaxonomyWatcher(cfg.TaxonomyPath, func(taxonomy []perception.DomainTaxonomy) {
			orch.SetMatcher(perception.NewMatcher(taxonomy))
		})
		if err != nil {
			logging.ConfigWarn("taxonomy watcher unavailable: %v", err)
		} else if err := watcher.Start(ctx); err != nil {
			logging.ConfigWarn("taxonomy watcher failed to start: %v", err)
		} else {
			defer watcher.Stop()
		}
	}

	return chat.Run(chat.Config{
		Orchestrator: orch,
		UserID:       defaultUserID(),
		Agent:        types.AgentCopilot,
	})
}

// defaultUserID identifies the local user. One session per (agent, user); a
// single-machine CLI keys off the OS username.
func defaultUserID() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}
