package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skillscan/skillscan/pkg/presenter"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the skill catalog cache",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the cached catalog entry, if any",
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := newStore()
		if err != nil {
			return err
		}

		entry, err := store.Load()
		if err != nil {
			return err
		}

		presenter.Section("Skill catalog cache")
		presenter.Info(fmt.Sprintf("Location: %s", store.Path()))

		if entry == nil {
			presenter.Info("Status: empty (next run will perform a full scan)")
			return nil
		}

		presenter.Info(fmt.Sprintf("Fingerprint: %s", entry.Fingerprint))
		presenter.Info(fmt.Sprintf("Generated:   %s", entry.GeneratedAt.Format("2006-01-02 15:04:05 MST")))
		presenter.Info(fmt.Sprintf("Records:     %d", entry.RecordCount))
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the cached catalog entry",
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := newStore()
		if err != nil {
			return err
		}

		if err := store.Clear(); err != nil {
			return err
		}

		presenter.Success("Cache cleared")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
