package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bilihist/bili-history-sync-service/internal/domain"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	var configPath string
	var keyword, author, date string
	var pageSize int
	var pages int

	var historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Query the local watch history",
	}

	var listCmd = &cobra.Command{
		Use:   "list",
		Short: "List records newest first, with optional filters",
		Run: func(cmd *cobra.Command, args []string) {
			a, logger, err := setupApp(configPath)
			if err != nil {
				bootstrapLogger.Error("init failed", zap.Error(err))
				return
			}
			defer a.Close()
			ctx := context.Background()

			filter := domain.HistoryFilter{
				Keyword:       keyword,
				AuthorKeyword: author,
				Date:          date,
			}

			cursor := int64(0)
			shown := 0
			for page := 0; page < pages; page++ {
				items, hasMore, err := a.HistoryRepo.QueryPage(ctx, cursor, pageSize, filter)
				if err != nil {
					logger.Error("query failed", zap.Error(err))
					return
				}
				for _, h := range items {
					fmt.Printf("%-12d %-19s %-8s %s (%s)\n",
						h.ID,
						time.Unix(h.ViewAt, 0).Format("2006-01-02 15:04:05"),
						h.Business,
						h.Title,
						h.AuthorName)
					shown++
				}
				if len(items) == 0 || !hasMore {
					break
				}
				cursor = items[len(items)-1].ViewAt
			}
			fmt.Printf("%d records\n", shown)
		},
	}

	var deleteCmd = &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one record locally (and remotely when mirror-deletes is on)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				fmt.Printf("invalid id %q\n", args[0])
				return
			}

			a, logger, err := setupApp(configPath)
			if err != nil {
				bootstrapLogger.Error("init failed", zap.Error(err))
				return
			}
			defer a.Close()

			if err := a.SyncService.DeleteHistory(context.Background(), id); err != nil {
				logger.Error("delete failed", zap.Error(err))
				return
			}
			fmt.Printf("deleted %d\n", id)
		},
	}

	var clearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Delete all local history records; the next sync runs full",
		Run: func(cmd *cobra.Command, args []string) {
			a, logger, err := setupApp(configPath)
			if err != nil {
				bootstrapLogger.Error("init failed", zap.Error(err))
				return
			}
			defer a.Close()
			ctx := context.Background()

			if err := a.HistoryRepo.Clear(ctx); err != nil {
				logger.Error("clear failed", zap.Error(err))
				return
			}
			// 清空后重置全量标记，下一次同步走全量
			if err := a.SettingRepo.Delete(ctx, domain.SettingHasFullSync); err != nil {
				logger.Warn("reset full-sync flag failed", zap.Error(err))
			}
			fmt.Println("history cleared")
		},
	}

	historyCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file")
	listCmd.Flags().StringVarP(&keyword, "keyword", "k", "", "title keyword filter")
	listCmd.Flags().StringVarP(&author, "author", "a", "", "author keyword filter")
	listCmd.Flags().StringVar(&date, "date", "", "view date filter (2006-01-02)")
	listCmd.Flags().IntVar(&pageSize, "page-size", 30, "records per page")
	listCmd.Flags().IntVar(&pages, "pages", 1, "number of pages to print")
	historyCmd.AddCommand(listCmd, deleteCmd, clearCmd)
	rootCmd.AddCommand(historyCmd)
}
