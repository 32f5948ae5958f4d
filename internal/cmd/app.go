package cmd

import (
	"fmt"
	"io"

	"github.com/allanpk716/hwpx_replacer/internal/config"
	"github.com/allanpk716/hwpx_replacer/internal/logging"
	"github.com/allanpk716/hwpx_replacer/internal/processor"
	"github.com/allanpk716/hwpx_replacer/internal/schema"
)

// app 一次命令执行所需的配置和依赖
type app struct {
	cfg   *config.Config
	opts  processor.Options
	store schema.Store
}

// newApp 加载配置并初始化日志、字段目录、映射器和缓存
// configFile 为空时使用默认配置
func newApp(configFile string, verbose bool, logOutput io.Writer) (*app, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.NewConfigManager().LoadConfig(configFile)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
		cfg = loaded
	}

	if err := initLogging(cfg, verbose, logOutput); err != nil {
		return nil, err
	}

	registry, err := config.BuildRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("创建字段目录失败: %w", err)
	}
	dialect, err := config.Dialect(cfg)
	if err != nil {
		return nil, err
	}

	fields := registry.Fields()
	if cfg.SchemaPath != "" {
		master, err := schema.LoadTemplateFile(cfg.SchemaPath)
		if err != nil {
			return nil, fmt.Errorf("加载主模板失败: %w", err)
		}
		fields = schema.ApplyLabels(fields, master.Labels())
	}

	store, err := schema.OpenStore(cfg.SchemaCache.Type, cfg.SchemaCache.Path)
	if err != nil {
		return nil, fmt.Errorf("打开映射缓存失败: %w", err)
	}

	logging.Debug("配置加载完成", "project", cfg.ProjectName, "fields", len(fields), "cache", cfg.SchemaCache.Type)

	return &app{
		cfg: cfg,
		opts: processor.Options{
			Dialect:  dialect,
			Registry: registry,
			Fields:   fields,
			Mapper:   schema.NewMapper(config.MapperOptions(cfg)),
			Store:    store,
		},
		store: store,
	}, nil
}

func initLogging(cfg *config.Config, verbose bool, w io.Writer) error {
	level := logging.LevelInfo
	if verbose || cfg.ProcessingConfig.EnableDetailedLogging {
		level = logging.LevelDebug
	}
	format, err := logging.ParseFormat(cfg.ProcessingConfig.LogFormat)
	if err != nil {
		return err
	}
	logging.InitLogger(level, format, w)
	return nil
}

// Close 释放缓存连接
func (a *app) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
