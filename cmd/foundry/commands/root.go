package commands

import (
	"fmt"
	"log"

	"github.com/foundry-mcp/foundry/internal/backend/fsbackend"
	"github.com/foundry-mcp/foundry/internal/backend/memory"
	"github.com/foundry-mcp/foundry/internal/backend/remote"
	"github.com/foundry-mcp/foundry/internal/config"
	"github.com/foundry-mcp/foundry/internal/foundry"
	"github.com/foundry-mcp/foundry/internal/locator"
	"github.com/foundry-mcp/foundry/internal/syncer"
	"github.com/spf13/cobra"
)

var (
	backendFlag string
	rootPath    string
)

var rootCmd = &cobra.Command{
	Use:   "foundry",
	Short: "Manage project and spec context for LLM coding assistants",
	Long: `Foundry stores a project's vision, tech stack, and per-feature specs
(spec, notes, task list) behind a pluggable storage backend: a plain
filesystem tree, an in-memory store for scripting, or a remote issue
tracker mirror.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "storage backend: fs, memory, or remote (default: remote if a tracker API key is configured, else fs)")
	rootCmd.PersistentFlags().StringVar(&rootPath, "root", "", "filesystem backend root directory (default: <config home>/projects)")
}

// buildFacade assembles a foundry.Facade from configuration and the
// --backend flag, mirroring loadConfig/newLinearClient's role in the
// filesystem-mount command this CLI descends from.
func buildFacade(cmd *cobra.Command) (*foundry.Facade, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	kind := backendFlag
	if kind == "" {
		if cfg.Linear.APIKey != "" {
			kind = "remote"
		} else {
			kind = "fs"
		}
	}

	switch kind {
	case "memory":
		return foundry.New(memory.New(nil)), func() {}, nil

	case "fs":
		root := rootPath
		if root == "" {
			root = cfg.Home + "/projects"
		}
		backend, err := fsbackend.New(root, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("open filesystem backend at %s: %w", root, err)
		}
		return foundry.New(backend), func() {}, nil

	case "remote":
		if cfg.Linear.APIKey == "" {
			return nil, nil, fmt.Errorf("remote backend requires an API key: set linear.api_key in the config file or FOUNDRY_LINEAR_API_KEY")
		}
		client := remote.NewClient(cfg.Linear.APIKey)
		store, err := locator.Open(cfg.Home + "/locator.db")
		if err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("open locator store: %w", err)
		}
		backend := remote.New(client, store, remote.Config{
			TeamID:   cfg.Linear.TeamID,
			TeamKey:  cfg.Linear.TeamKey,
			TeamName: cfg.Linear.TeamName,
		}, nil)

		worker := syncer.NewWorker(client, store, backend.DocCache(), syncer.Config{Interval: cfg.Cache.TTL})
		worker.Start(cmd.Context())

		cleanup := func() {
			worker.Stop()
			if err := store.Close(); err != nil {
				log.Printf("close locator store: %v", err)
			}
			client.Close()
		}
		return foundry.New(backend), cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q: want fs, memory, or remote", kind)
	}
}
