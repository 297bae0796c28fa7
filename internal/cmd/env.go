package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/hexpipe/internal/collection"
	"github.com/harrison/hexpipe/internal/config"
	"github.com/harrison/hexpipe/internal/history"
	"github.com/harrison/hexpipe/internal/logger"
	"github.com/harrison/hexpipe/internal/paths"
)

// environment is what every command needs once the configuration is loaded.
type environment struct {
	cfg  *config.Config
	root string
	log  *logger.ConsoleLogger
}

// loadEnvironment loads the configuration and applies the persistent flags.
func loadEnvironment(cmd *cobra.Command) (*environment, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDefault(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var logLevelPtr *string
	if cmd.Flags().Changed("log-level") {
		level, _ := cmd.Flags().GetString("log-level")
		logLevelPtr = &level
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level := "debug"
		logLevelPtr = &level
	}

	var historyPtr *bool
	if f := cmd.Flags().Lookup("no-history"); f != nil && f.Changed {
		disabled, _ := cmd.Flags().GetBool("no-history")
		enabled := !disabled
		historyPtr = &enabled
	}

	cfg.MergeWithFlags(logLevelPtr, historyPtr)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	root, err := cfg.WorkingDataRoot()
	if err != nil {
		return nil, err
	}

	env := &environment{
		cfg:  cfg,
		root: root,
		log:  logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel),
	}
	env.log.LogDebug(fmt.Sprintf("Configuration loaded from %s", cfg.Path))
	return env, nil
}

// resolve expands a collection reference given on the command line.
func (e *environment) resolve(reference string, depth paths.Depth) (*collection.Resolution, error) {
	return collection.NewResolver(e.root, e.log).Resolve(paths.Normalize(reference), depth)
}

// openHistory opens the run history, or returns nil when it is disabled.
func (e *environment) openHistory() (*history.Store, error) {
	if !e.cfg.History.Enabled {
		return nil, nil
	}
	store, err := history.NewStore(e.cfg.HistoryDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open run history: %w", err)
	}
	return store, nil
}
