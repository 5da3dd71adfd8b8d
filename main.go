package main

import (
	"flag"
	"log"

	"easytest_backend/internal/app"
	"easytest_backend/internal/config"
	"easytest_backend/pkg/configwatcher"
	"easytest_backend/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	// 命令行参数
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	migrate := flag.Bool("migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 设置迁移标志
	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 迁移完成后直接退出
	if *migrateOnly {
		log.Println("数据库迁移完成，退出程序")
		return
	}

	// 配置热更新：目前只消费限流与 CORS 之外可安全热替换的字段
	go configwatcher.WatchConfig("configs/config.yaml", func(next *config.Config) {
		logger.Log.Info("Config reloaded",
			zap.String("server.mode", next.Server.Mode),
			zap.Int("rate_limit.max_requests", next.RateLimit.MaxRequests))
	})

	application.Run()
}
