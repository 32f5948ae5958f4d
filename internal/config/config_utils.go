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
	"github.com/allanpk716/hwpx_replacer/internal/schema"
	"github.com/allanpk716/hwpx_replacer/pkg/hwpx"
	"gopkg.in/yaml.v3"
)

// SaveConfig 保存配置到文件
func (cm *configManager) SaveConfig(config *Config, filePath string) error {
	if config == nil {
		return fmt.Errorf("配置不能为空")
	}

	now := time.Now()
	config.UpdatedAt = &now

	if err := cm.ValidateConfig(config); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(config)
	default:
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}

// FieldDefinitions 把字段配置编译为字段定义
// 未配置 pattern 的默认字段沿用默认模式
func FieldDefinitions(config *Config) ([]domain.FieldDefinition, error) {
	defaults := make(map[string]domain.FieldDefinition)
	for _, def := range matcher.DefaultFieldDefinitions() {
		defaults[matcher.Normalize(def.Name)] = def
	}

	defs := make([]domain.FieldDefinition, 0, len(config.Fields))
	for _, field := range config.Fields {
		mode, err := domain.ParseMatchMode(field.Mode)
		if err != nil {
			return nil, fmt.Errorf("字段 %s: %w", field.Name, err)
		}
		def := domain.FieldDefinition{Name: field.Name, Label: field.Label, Mode: mode}

		switch {
		case field.Pattern != "":
			re, err := regexp.Compile(field.Pattern)
			if err != nil {
				return nil, fmt.Errorf("字段 %s 的 pattern 无效: %w", field.Name, err)
			}
			def.Pattern = re
		default:
			if d, ok := defaults[matcher.Normalize(field.Name)]; ok {
				def.Pattern = d.Pattern
				if field.Mode == "" {
					def.Mode = d.Mode
				}
			}
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// BuildRegistry 根据配置创建字段目录
func BuildRegistry(config *Config) (*matcher.Registry, error) {
	defs, err := FieldDefinitions(config)
	if err != nil {
		return nil, err
	}
	return matcher.NewRegistry(defs)
}

// MapperOptions 根据配置生成映射器选项，未配置的项使用默认值
// date_pattern 应已通过 ValidateConfig 校验
func MapperOptions(config *Config) schema.Options {
	opts := schema.DefaultOptions()
	if config.Anchor != "" {
		opts.Anchor = config.Anchor
	}
	if config.DatePattern != "" {
		if re, err := regexp.Compile(config.DatePattern); err == nil {
			opts.DatePattern = re
		}
	}
	if len(config.SignatureMarkers) > 0 {
		opts.SignatureMarkers = config.SignatureMarkers
	}
	if len(config.RangeSeparators) > 0 {
		opts.RangeSeparators = config.RangeSeparators
	}
	if config.DefaultOffset != nil {
		opts.DefaultOffset = *config.DefaultOffset
	}
	return opts
}

// Dialect 返回配置的文档格式
func Dialect(config *Config) (hwpx.Dialect, error) {
	return hwpx.DialectByName(config.Dialect)
}
