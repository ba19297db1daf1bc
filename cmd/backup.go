package cmd

import (
	"context"
	"fmt"

	"github.com/bilihist/bili-history-sync-service/global"
	"github.com/bilihist/bili-history-sync-service/pkg/webdav"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func requireWebDAV() bool {
	if !global.Config.WebDAV.IsConfigured() {
		fmt.Println("webdav is not configured, set webdav.endpoint in config.yaml")
		return false
	}
	return true
}

func init() {
	var configPath string

	var webdavCmd = &cobra.Command{
		Use:   "webdav",
		Short: "WebDAV backup operations",
	}

	var backupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Upload a full snapshot to the WebDAV server",
		Run: func(cmd *cobra.Command, args []string) {
			a, logger, err := setupApp(configPath)
			if err != nil {
				bootstrapLogger.Error("init failed", zap.Error(err))
				return
			}
			defer a.Close()
			if !requireWebDAV() {
				return
			}

			if err := a.BackupService.BackupToWebDAV(context.Background()); err != nil {
				logger.Error("backup failed", zap.Error(err))
				return
			}
			fmt.Println("backup completed")
		},
	}

	var restoreCmd = &cobra.Command{
		Use:   "restore",
		Short: "Merge the WebDAV snapshot into the local store",
		Run: func(cmd *cobra.Command, args []string) {
			a, logger, err := setupApp(configPath)
			if err != nil {
				bootstrapLogger.Error("init failed", zap.Error(err))
				return
			}
			defer a.Close()
			if !requireWebDAV() {
				return
			}

			result, err := a.BackupService.RestoreFromWebDAV(context.Background())
			if err != nil {
				logger.Error("restore failed", zap.Error(err))
				return
			}
			fmt.Printf("history: %d merged, %d skipped\n", result.History.Merged, result.History.Skipped)
			fmt.Printf("music:   %d merged, %d skipped\n", result.LikedMusic.Merged, result.LikedMusic.Skipped)
			fmt.Printf("folders: %d upserted, resources: %d merged, %d skipped\n",
				result.FavFolders, result.FavResources.Merged, result.FavResources.Skipped)
		},
	}

	var syncCmd = &cobra.Command{
		Use:   "sync",
		Short: "Pull-merge then push the merged state back",
		Run: func(cmd *cobra.Command, args []string) {
			a, logger, err := setupApp(configPath)
			if err != nil {
				bootstrapLogger.Error("init failed", zap.Error(err))
				return
			}
			defer a.Close()
			if !requireWebDAV() {
				return
			}

			result, err := a.BackupService.BidirectionalSync(context.Background())
			if err != nil {
				logger.Error("bidirectional sync failed", zap.Error(err))
				return
			}
			fmt.Printf("merged %d, skipped %d history records, pushed snapshot back\n",
				result.History.Merged, result.History.Skipped)
		},
	}

	var testCmd = &cobra.Command{
		Use:   "test",
		Short: "Test WebDAV server connectivity",
		Run: func(cmd *cobra.Command, args []string) {
			_, _, err := setupApp(configPath)
			if err != nil {
				bootstrapLogger.Error("init failed", zap.Error(err))
				return
			}
			if !global.Config.WebDAV.IsConfigured() {
				fmt.Println("webdav is not configured")
				return
			}

			client, err := webdav.NewClient(&global.Config.WebDAV)
			if err != nil {
				fmt.Printf("connection failed: %v\n", err)
				return
			}
			if client.TestConnection() {
				fmt.Println("connection ok")
			} else {
				fmt.Println("server unreachable or credentials rejected")
			}
		},
	}

	webdavCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file")
	webdavCmd.AddCommand(backupCmd, restoreCmd, syncCmd, testCmd)
	rootCmd.AddCommand(webdavCmd)
}
