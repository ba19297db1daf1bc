package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	var configPath string
	var output string
	var format string

	var exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Export local data (json envelope, or csv per collection)",
		Run: func(cmd *cobra.Command, args []string) {
			a, logger, err := setupApp(configPath)
			if err != nil {
				bootstrapLogger.Error("init failed", zap.Error(err))
				return
			}
			defer a.Close()
			ctx := context.Background()

			var data []byte
			ext := "json"
			switch format {
			case "json":
				data, err = a.BackupService.ExportAll(ctx)
			case "csv-history":
				data, err = a.BackupService.ExportHistoryCSV(ctx)
				ext = "csv"
			case "csv-music":
				data, err = a.BackupService.ExportLikedMusicCSV(ctx)
				ext = "csv"
			default:
				fmt.Printf("unknown format %q, expected json, csv-history or csv-music\n", format)
				return
			}
			if err != nil {
				logger.Error("export failed", zap.Error(err))
				return
			}

			if output == "" {
				output = fmt.Sprintf("bili-history-export-%s.%s", time.Now().Format("20060102-150405"), ext)
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				logger.Error("export write failed", zap.Error(err))
				return
			}
			fmt.Printf("exported to %s (%d bytes)\n", output, len(data))
		},
	}

	var importCmd = &cobra.Command{
		Use:   "import <file>",
		Short: "Import a json export file (envelope or legacy array)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a, logger, err := setupApp(configPath)
			if err != nil {
				bootstrapLogger.Error("init failed", zap.Error(err))
				return
			}
			defer a.Close()

			data, err := os.ReadFile(args[0])
			if err != nil {
				fmt.Printf("cannot read %s: %v\n", args[0], err)
				return
			}

			result, err := a.BackupService.ImportAll(context.Background(), data)
			if err != nil {
				logger.Error("import failed", zap.Error(err))
				return
			}
			fmt.Printf("history: %d merged, %d skipped\n", result.History.Merged, result.History.Skipped)
			fmt.Printf("music:   %d merged, %d skipped\n", result.LikedMusic.Merged, result.LikedMusic.Skipped)
			fmt.Printf("folders: %d upserted, resources: %d merged, %d skipped\n",
				result.FavFolders, result.FavResources.Merged, result.FavResources.Skipped)
		},
	}

	exportCmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	exportCmd.Flags().StringVarP(&format, "format", "f", "json", "json, csv-history or csv-music")
	exportCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file")
	importCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
