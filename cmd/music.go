package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/bilihist/bili-history-sync-service/internal/domain"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	var configPath string
	var title, author string

	var musicCmd = &cobra.Command{
		Use:   "music",
		Short: "Manage liked music bookmarks",
	}

	var likeCmd = &cobra.Command{
		Use:   "like <bvid>",
		Short: "Bookmark a music video",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a, logger, err := setupApp(configPath)
			if err != nil {
				bootstrapLogger.Error("init failed", zap.Error(err))
				return
			}
			defer a.Close()

			m := &domain.LikedMusic{Bvid: args[0], Title: title, Author: author}
			if err := a.MusicService.Like(context.Background(), m); err != nil {
				logger.Error("like failed", zap.Error(err))
				return
			}
			fmt.Printf("liked %s\n", args[0])
		},
	}

	var unlikeCmd = &cobra.Command{
		Use:   "unlike <bvid>",
		Short: "Remove a music bookmark",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a, logger, err := setupApp(configPath)
			if err != nil {
				bootstrapLogger.Error("init failed", zap.Error(err))
				return
			}
			defer a.Close()

			if err := a.MusicService.Unlike(context.Background(), args[0]); err != nil {
				logger.Error("unlike failed", zap.Error(err))
				return
			}
			fmt.Printf("unliked %s\n", args[0])
		},
	}

	var listCmd = &cobra.Command{
		Use:   "list [keyword]",
		Short: "List liked music, newest first",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a, logger, err := setupApp(configPath)
			if err != nil {
				bootstrapLogger.Error("init failed", zap.Error(err))
				return
			}
			defer a.Close()

			keyword := ""
			if len(args) > 0 {
				keyword = args[0]
			}
			items, err := a.MusicService.List(context.Background(), keyword)
			if err != nil {
				logger.Error("list failed", zap.Error(err))
				return
			}
			for _, m := range items {
				fmt.Printf("%-14s %-19s %s - %s\n",
					m.Bvid,
					time.UnixMilli(m.AddedAt).Format("2006-01-02 15:04:05"),
					m.Title,
					m.Author)
			}
			fmt.Printf("%d records\n", len(items))
		},
	}

	musicCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file")
	likeCmd.Flags().StringVarP(&title, "title", "t", "", "title")
	likeCmd.Flags().StringVarP(&author, "author", "a", "", "author")
	musicCmd.AddCommand(likeCmd, unlikeCmd, listCmd)
	rootCmd.AddCommand(musicCmd)
}
