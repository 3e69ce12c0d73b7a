package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/theimaginaryfoundation/interview-helper/analysis/logging"
)

func newRootCommand(a *app) *cobra.Command {
	logCfg := logging.DefaultConfig()
	envFile := ".env"

	root := &cobra.Command{
		Use:           "interview-helper",
		Short:         "Distill research interview transcripts with an LLM",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnvFile(envFile); err != nil {
				return usageError(err)
			}
			logCfg.Output = a.stderr
			logger, err := logging.New(logCfg)
			if err != nil {
				return usageError(err)
			}
			a.logger = logger
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&logCfg.Level, "log-level", logCfg.Level, "Log level (debug, info, warn, error)")
	pf.BoolVar(&logCfg.JSON, "log-json", false, "Emit logs as JSON")
	pf.StringVar(&envFile, "env-file", envFile, "Load environment variables from this file if it exists")

	root.AddCommand(newAnalyzeCommand(a))
	root.AddCommand(newChunkCommand(a))
	root.AddCommand(newVersionCommand(a))
	return root
}

// loadEnvFile loads path without overriding variables already set. A missing file is fine.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(a.stdout, "interview-helper %s\n", version)
			return err
		},
	}
}
