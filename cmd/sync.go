package cmd

import (
	"context"
	"fmt"

	"github.com/bilihist/bili-history-sync-service/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	var configPath string
	var full bool

	var syncCmd = &cobra.Command{
		Use:   "sync",
		Short: "Run a one-off sync against bilibili",
	}

	var historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Sync watch history (incremental unless --full)",
		Run: func(cmd *cobra.Command, args []string) {
			a, logger, err := setupApp(configPath)
			if err != nil {
				bootstrapLogger.Error("init failed", zap.Error(err))
				return
			}
			defer a.Close()

			result, err := a.SyncService.SyncHistory(context.Background(), full, func(p service.Progress) {
				fmt.Printf("\r%s", p.Message)
			})
			fmt.Println()
			if err != nil {
				logger.Error("history sync failed", zap.Error(err))
				return
			}
			if result.Stopped {
				fmt.Println("already up to date")
				return
			}
			fmt.Printf("synced %d records over %d pages\n", result.Written, result.Pages)
		},
	}

	var favoritesCmd = &cobra.Command{
		Use:   "favorites",
		Short: "Mirror favorite folders and resources",
		Run: func(cmd *cobra.Command, args []string) {
			a, logger, err := setupApp(configPath)
			if err != nil {
				bootstrapLogger.Error("init failed", zap.Error(err))
				return
			}
			defer a.Close()

			result, err := a.SyncService.SyncFavorites(context.Background(), func(p service.Progress) {
				fmt.Printf("\r%s (%d/%d)", p.Message, p.Current, p.Total)
			})
			fmt.Println()
			if err != nil {
				logger.Error("favorites sync failed", zap.Error(err))
				return
			}
			fmt.Printf("synced %d folders, %d resources (%d folders failed)\n",
				result.Folders, result.Resources, result.FailedFolders)
		},
	}

	syncCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file")
	historyCmd.Flags().BoolVar(&full, "full", false, "force a full sync")
	syncCmd.AddCommand(historyCmd)
	syncCmd.AddCommand(favoritesCmd)
	rootCmd.AddCommand(syncCmd)
}
