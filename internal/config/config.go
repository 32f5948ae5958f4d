package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/allanpk716/hwpx_replacer/internal/domain"
	"github.com/allanpk716/hwpx_replacer/internal/matcher"
	"github.com/allanpk716/hwpx_replacer/pkg/hwpx"
	"gopkg.in/yaml.v3"
)

// CurrentVersion 当前配置版本
const CurrentVersion = "1.0"

// FieldConfig 字段配置项
type FieldConfig struct {
	Name    string `json:"name" yaml:"name"`
	Label   string `json:"label,omitempty" yaml:"label,omitempty"`
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Mode    string `json:"mode,omitempty" yaml:"mode,omitempty"`
}

// SchemaCacheConfig 映射模板缓存配置
type SchemaCacheConfig struct {
	Type string `json:"type" yaml:"type"`
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// ProcessingConfig 处理配置
type ProcessingConfig struct {
	EnableDetailedLogging bool     `json:"enable_detailed_logging" yaml:"enable_detailed_logging"`
	MaxConcurrentFiles    int      `json:"max_concurrent_files" yaml:"max_concurrent_files"`
	OutputSuffix          string   `json:"output_suffix" yaml:"output_suffix"`
	ExcludePatterns       []string `json:"exclude_patterns,omitempty" yaml:"exclude_patterns,omitempty"`
	LogFormat             string   `json:"log_format,omitempty" yaml:"log_format,omitempty"`
}

// Config 完整的配置文件结构
type Config struct {
	ProjectName      string             `json:"project_name" yaml:"project_name"`
	Dialect          string             `json:"dialect,omitempty" yaml:"dialect,omitempty"`
	Fields           []FieldConfig      `json:"fields,omitempty" yaml:"fields,omitempty"`
	Anchor           string             `json:"anchor,omitempty" yaml:"anchor,omitempty"`
	DatePattern      string             `json:"date_pattern,omitempty" yaml:"date_pattern,omitempty"`
	SignatureMarkers []string           `json:"signature_markers,omitempty" yaml:"signature_markers,omitempty"`
	RangeSeparators  []string           `json:"range_separators,omitempty" yaml:"range_separators,omitempty"`
	DefaultOffset    *int               `json:"default_offset,omitempty" yaml:"default_offset,omitempty"`
	SchemaPath       string             `json:"schema_path,omitempty" yaml:"schema_path,omitempty"`
	SchemaCache      *SchemaCacheConfig `json:"schema_cache,omitempty" yaml:"schema_cache,omitempty"`
	ProcessingConfig *ProcessingConfig  `json:"processing_config,omitempty" yaml:"processing_config,omitempty"`
	Version          string             `json:"version,omitempty" yaml:"version,omitempty"`
	UpdatedAt        *time.Time         `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// ConfigManager 配置管理接口
type ConfigManager interface {
	LoadConfig(filePath string) (*Config, error)
	ValidateConfig(config *Config) error
	SaveConfig(config *Config, filePath string) error
}

// configManager 配置管理器实现
type configManager struct{}

// NewConfigManager 创建新的配置管理器
func NewConfigManager() ConfigManager {
	return &configManager{}
}

// DefaultConfig 未提供配置文件时使用的默认配置
func DefaultConfig() *Config {
	cfg := &Config{ProjectName: "hwpx-replacer"}
	setDefaultValues(cfg)
	return cfg
}

// LoadConfig 从文件加载配置，按扩展名选择 JSON 或 YAML
func (cm *configManager) LoadConfig(filePath string) (*Config, error) {
	if filePath == "" {
		return nil, fmt.Errorf("配置文件路径不能为空")
	}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("配置文件不存在: %s", filePath)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".json":
		err = json.Unmarshal(data, &config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		return nil, fmt.Errorf("配置文件必须是 JSON 或 YAML 格式，当前文件: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	setDefaultValues(&config)

	if err := cm.ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &config, nil
}

// ValidateConfig 验证配置的有效性
func (cm *configManager) ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("配置不能为空")
	}

	if config.ProjectName == "" {
		return fmt.Errorf("项目名称不能为空")
	}

	if _, err := hwpx.DialectByName(config.Dialect); err != nil {
		return err
	}

	if len(config.Fields) == 0 {
		return fmt.Errorf("字段列表不能为空")
	}

	nameSet := make(map[string]bool)
	for i, field := range config.Fields {
		key := matcher.Normalize(field.Name)
		if key == "" {
			return fmt.Errorf("第 %d 个字段的 name 不能为空", i+1)
		}
		if nameSet[key] {
			return fmt.Errorf("字段重复: %s", field.Name)
		}
		nameSet[key] = true

		if field.Pattern != "" {
			if _, err := regexp.Compile(field.Pattern); err != nil {
				return fmt.Errorf("字段 %s 的 pattern 无效: %w", field.Name, err)
			}
		}
		if _, err := domain.ParseMatchMode(field.Mode); err != nil {
			return fmt.Errorf("字段 %s: %w", field.Name, err)
		}
	}

	if config.DatePattern != "" {
		if _, err := regexp.Compile(config.DatePattern); err != nil {
			return fmt.Errorf("date_pattern 无效: %w", err)
		}
	}

	if config.DefaultOffset != nil && *config.DefaultOffset < 0 {
		return fmt.Errorf("default_offset 不能为负数")
	}

	if config.SchemaCache != nil {
		if err := validateSchemaCache(config.SchemaCache); err != nil {
			return fmt.Errorf("缓存配置无效: %w", err)
		}
	}

	if config.ProcessingConfig != nil {
		if err := validateProcessingConfig(config.ProcessingConfig); err != nil {
			return fmt.Errorf("处理配置无效: %w", err)
		}
	}

	return nil
}

// validateSchemaCache 验证缓存配置
func validateSchemaCache(sc *SchemaCacheConfig) error {
	switch sc.Type {
	case "", "none":
		return nil
	case "file", "sqlite":
		if sc.Path == "" {
			return fmt.Errorf("%s 缓存必须指定 path", sc.Type)
		}
		return nil
	default:
		return fmt.Errorf("不支持的缓存类型: %s", sc.Type)
	}
}

// validateProcessingConfig 验证处理配置
func validateProcessingConfig(pc *ProcessingConfig) error {
	if pc.MaxConcurrentFiles < 1 || pc.MaxConcurrentFiles > 50 {
		return fmt.Errorf("最大并发文件数必须在1-50之间")
	}

	for _, pattern := range pc.ExcludePatterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("排除模式无效 %s: %w", pattern, err)
		}
	}

	switch pc.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("不支持的日志格式: %s", pc.LogFormat)
	}

	return nil
}

// setDefaultValues 设置默认值
func setDefaultValues(config *Config) {
	if config.Version == "" {
		config.Version = CurrentVersion
	}

	if config.Dialect == "" {
		config.Dialect = hwpx.HWPX.Name
	}

	if len(config.Fields) == 0 {
		for _, def := range matcher.DefaultFieldDefinitions() {
			config.Fields = append(config.Fields, FieldConfig{
				Name:    def.Name,
				Label:   def.Label,
				Pattern: def.Pattern.String(),
				Mode:    modeName(def.Mode),
			})
		}
	}

	if config.SchemaCache == nil {
		config.SchemaCache = &SchemaCacheConfig{Type: "none"}
	}

	if config.ProcessingConfig == nil {
		config.ProcessingConfig = &ProcessingConfig{
			EnableDetailedLogging: false,
			MaxConcurrentFiles:    1,
			OutputSuffix:          "_processed",
			ExcludePatterns:       []string{"~$*", "*.tmp"},
		}
	}
	if config.ProcessingConfig.MaxConcurrentFiles == 0 {
		config.ProcessingConfig.MaxConcurrentFiles = 1
	}
	if config.ProcessingConfig.OutputSuffix == "" {
		config.ProcessingConfig.OutputSuffix = "_processed"
	}
}

func modeName(m domain.MatchMode) string {
	if m == domain.LastMatchInCorpus {
		return "last"
	}
	return "first"
}
