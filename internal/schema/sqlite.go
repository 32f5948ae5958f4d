package schema

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const createTemplatesTable = `
CREATE TABLE IF NOT EXISTS schema_templates (
	fingerprint TEXT PRIMARY KEY,
	payload     TEXT NOT NULL,
	updated_at  TEXT NOT NULL
)`

// SQLiteStore 基于 SQLite 的模板缓存，适合多个进程共享
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore 打开或创建 SQLite 缓存
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("缓存数据库路径不能为空")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("创建缓存目录失败: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("打开缓存数据库失败: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createTemplatesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化缓存表失败: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load 读取指纹对应的模板
func (s *SQLiteStore) Load(ctx context.Context, fingerprint string) (*Template, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM schema_templates WHERE fingerprint = ?`, fingerprint).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询模板失败: %w", err)
	}

	var t Template
	if err := json.Unmarshal([]byte(payload), &t); err != nil {
		return nil, fmt.Errorf("解析模板失败: %w", err)
	}
	return &t, nil
}

// Save 写入或覆盖模板
func (s *SQLiteStore) Save(ctx context.Context, t *Template) error {
	if t.Fingerprint == "" {
		t.Fingerprint = Fingerprint(t.AllText)
	}
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("序列化模板失败: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO schema_templates (fingerprint, payload, updated_at) VALUES (?, ?, ?)
ON CONFLICT(fingerprint) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		t.Fingerprint, string(payload), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("保存模板失败: %w", err)
	}
	return nil
}

// Close 关闭数据库
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
