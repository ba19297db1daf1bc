package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bilihist/bili-history-sync-service/global"
	internalApp "github.com/bilihist/bili-history-sync-service/internal/app"
	"github.com/bilihist/bili-history-sync-service/internal/task"
	"github.com/bilihist/bili-history-sync-service/pkg/safe_close"

	"github.com/radovskyb/watcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type runFlags struct {
	dir    string // 项目根目录
	config string // 指定要使用的配置文件路径
}

// Server 同步守护进程实例，配置热重载时整体重建
type Server struct {
	logger *zap.Logger
	sc     *safe_close.SafeClose
	app    *internalApp.App
}

// NewServer 初始化守护进程：配置、日志、应用容器与后台任务
func NewServer(runEnv *runFlags) (*Server, error) {
	a, logger, err := setupApp(runEnv.config)
	if err != nil {
		return nil, err
	}

	sc := safe_close.New()
	s := &Server{
		logger: logger,
		sc:     sc,
		app:    a,
	}

	// 收到关闭信号后释放数据库连接
	sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		<-closeSignal
		if err := a.Close(); err != nil {
			logger.Error("app close error", zap.Error(err))
		}
	})

	manager := task.NewManager(a, sc)
	if err := manager.RegisterTasks(); err != nil {
		return nil, err
	}
	manager.Start()

	logger.Info("sync service started",
		zap.String("config", global.Config.File),
		zap.String("database", global.Config.Database.Path))
	return s, nil
}

func init() {
	runEnv := new(runFlags)

	var runCommand = &cobra.Command{
		Use:   "run [-c config_file] [-d working_dir]",
		Short: "Run sync daemon",
		Run: func(cmd *cobra.Command, args []string) {
			if len(runEnv.dir) > 0 {
				if err := os.Chdir(runEnv.dir); err != nil {
					bootstrapLogger.Error("failed to change the current working directory", zap.Error(err))
					return
				}
				bootstrapLogger.Info("working directory changed", zap.String("dir", runEnv.dir))
			}

			s, err := NewServer(runEnv)
			if err != nil {
				bootstrapLogger.Error("service start err", zap.Error(err))
				return
			}

			// 监听配置文件写入，变更时重建整个服务
			go func() {
				w := watcher.New()
				w.SetMaxEvents(1)
				w.FilterOps(watcher.Write)

				go func() {
					for {
						select {
						case event := <-w.Event:
							s.logger.Info("config changed, restarting service",
								zap.String("file", event.Path))
							s.sc.SendCloseSignal(nil)
							if err := s.sc.WaitClosed(); err != nil {
								s.logger.Error("shutdown before reload failed", zap.Error(err))
							}

							s, err = NewServer(runEnv)
							if err != nil {
								bootstrapLogger.Error("service restart err", zap.Error(err))
								continue
							}
						case err := <-w.Error:
							s.logger.Error("config watcher error", zap.Error(err))
						case <-w.Closed:
							bootstrapLogger.Info("config watcher closed")
							return
						}
					}
				}()

				if err := w.Add(global.Config.File); err != nil {
					s.logger.Error("config watcher file error", zap.Error(err))
					return
				}
				if err := w.Start(time.Second * 5); err != nil {
					s.logger.Error("config watcher start error", zap.Error(err))
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			s.logger.Info("received shutdown signal, initiating graceful shutdown")
			s.sc.SendCloseSignal(nil)

			if err := s.sc.WaitClosed(); err != nil {
				s.logger.Error("shutdown completed with error", zap.Error(err))
			} else {
				s.logger.Info("service has been shut down gracefully")
			}
		},
	}

	rootCmd.AddCommand(runCommand)
	fs := runCommand.Flags()
	fs.StringVarP(&runEnv.dir, "dir", "d", "", "run dir")
	fs.StringVarP(&runEnv.config, "config", "c", "", "config file")
}
