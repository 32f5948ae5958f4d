package schema

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/allanpk716/hwpx_replacer/internal/domain"
	"github.com/zeebo/blake3"
)

// ErrTemplateNotFound 缓存中没有对应指纹的模板
var ErrTemplateNotFound = errors.New("模板不存在")

// Template 持久化的映射模板
type Template struct {
	AllText     []string             `json:"all_text"`
	Mappings    domain.SchemaMapping `json:"mappings"`
	Fingerprint string               `json:"fingerprint,omitempty"`
}

// NewTemplate 根据语料与映射创建模板
func NewTemplate(corpus []string, mapping domain.SchemaMapping) *Template {
	return &Template{
		AllText:     corpus,
		Mappings:    mapping,
		Fingerprint: Fingerprint(corpus),
	}
}

// Fingerprint 语料的 BLAKE3-256 十六进制摘要
func Fingerprint(corpus []string) string {
	sum := blake3.Sum256([]byte(strings.Join(corpus, "\n")))
	return hex.EncodeToString(sum[:])
}

// Matches 模板是否由同一语料生成
func (t *Template) Matches(corpus []string) bool {
	fp := t.Fingerprint
	if fp == "" && len(t.AllText) > 0 {
		fp = Fingerprint(t.AllText)
	}
	return fp != "" && fp == Fingerprint(corpus)
}

// Labels 返回模板中按整行映射的字段，作为主模板标签使用
func (t *Template) Labels() map[string]string {
	labels := make(map[string]string, len(t.Mappings))
	for name, loc := range t.Mappings {
		if loc.Kind == domain.LocationLiteral {
			labels[name] = loc.Line
		}
	}
	return labels
}

// Store 模板缓存
type Store interface {
	Load(ctx context.Context, fingerprint string) (*Template, error)
	Save(ctx context.Context, t *Template) error
	Close() error
}

// OpenStore 按类型打开缓存，none 返回 nil
func OpenStore(kind, path string) (Store, error) {
	switch kind {
	case "", "none":
		return nil, nil
	case "file":
		store, err := NewFileStore(path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "sqlite":
		store, err := NewSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("不支持的缓存类型: %s", kind)
	}
}

// FileStore 每个指纹一个 JSON 文件的目录缓存
type FileStore struct {
	dir string
}

// NewFileStore 创建目录缓存
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("缓存目录不能为空")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建缓存目录失败: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(fingerprint string) string {
	return filepath.Join(s.dir, fingerprint+".json")
}

// Load 读取指纹对应的模板
func (s *FileStore) Load(_ context.Context, fingerprint string) (*Template, error) {
	t, err := LoadTemplateFile(s.path(fingerprint))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrTemplateNotFound
	}
	return t, err
}

// Save 写入模板
func (s *FileStore) Save(_ context.Context, t *Template) error {
	if t.Fingerprint == "" {
		t.Fingerprint = Fingerprint(t.AllText)
	}
	return SaveTemplateFile(s.path(t.Fingerprint), t)
}

// Close 目录缓存无需释放资源
func (s *FileStore) Close() error {
	return nil
}

// LoadTemplateFile 从指定路径读取模板
func LoadTemplateFile(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取模板文件失败: %w", err)
	}
	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("解析模板文件失败: %w", err)
	}
	if t.Mappings == nil {
		t.Mappings = make(domain.SchemaMapping)
	}
	return &t, nil
}

// SaveTemplateFile 把模板写入指定路径
func SaveTemplateFile(path string, t *Template) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化模板失败: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建模板目录失败: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("写入模板文件失败: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("设置模板文件权限失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("写入模板文件失败: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("写入模板文件失败: %w", err)
	}
	return nil
}
