package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind 非致命诊断的类别
type Kind string

const (
	// SchemaUnresolved 字段没有找到标签行或锚点，映射退化为标签文本
	SchemaUnresolved Kind = "schema_unresolved"
	// FieldNotMapped 请求的字段不在映射中
	FieldNotMapped Kind = "field_not_mapped"
	// RuleNotApplicable 规则的原文不在当前文档中
	RuleNotApplicable Kind = "rule_not_applicable"
	// MalformedParagraph 段落结构异常，未修改
	MalformedParagraph Kind = "malformed_paragraph"
	// PositionalOutOfRange 锚点+偏移超出段落范围
	PositionalOutOfRange Kind = "positional_out_of_range"
	// CacheError 模板缓存读写失败，回退到重新分析
	CacheError Kind = "cache_error"
)

// Diagnostic 一条非致命诊断
type Diagnostic struct {
	Kind    Kind   `json:"kind"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Newf 创建诊断
func Newf(kind Kind, field, format string, args ...interface{}) Diagnostic {
	return Diagnostic{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}

func (d Diagnostic) String() string {
	if d.Field == "" {
		return fmt.Sprintf("[%s] %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Kind, d.Field, d.Message)
}

// ReplacementRecord 单个字段的替换记录
type ReplacementRecord struct {
	Field        string    `json:"field"`
	LastValue    string    `json:"last_value"`
	ReplaceCount int       `json:"replace_count"`
	LastModified time.Time `json:"last_modified"`
}

// Report 单个文档一次处理的诊断报告
type Report struct {
	RunID              string                        `json:"run_id"`
	Document           string                        `json:"document"`
	StartedAt          time.Time                     `json:"started_at"`
	Diagnostics        []Diagnostic                  `json:"diagnostics"`
	ModifiedParagraphs int                           `json:"modified_paragraphs"`
	RulesApplied       int                           `json:"rules_applied"`
	UnmatchedRules     int                           `json:"unmatched_rules"`
	CacheHit           bool                          `json:"cache_hit"`
	Replacements       map[string]*ReplacementRecord `json:"replacements,omitempty"`
}

// New 为文档创建新的报告
func New(document string) *Report {
	return &Report{
		RunID:        uuid.New().String(),
		Document:     document,
		StartedAt:    time.Now(),
		Diagnostics:  []Diagnostic{},
		Replacements: make(map[string]*ReplacementRecord),
	}
}

// Add 追加诊断
func (r *Report) Add(diagnostics ...Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, diagnostics...)
}

// Count 统计某类诊断数量
func (r *Report) Count(kind Kind) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// RecordReplacement 添加或更新字段的替换记录
func (r *Report) RecordReplacement(field, value string) {
	if existing, ok := r.Replacements[field]; ok {
		existing.LastValue = value
		existing.ReplaceCount++
		existing.LastModified = time.Now()
		return
	}
	r.Replacements[field] = &ReplacementRecord{
		Field:        field,
		LastValue:    value,
		ReplaceCount: 1,
		LastModified: time.Now(),
	}
}

// Records 按字段名排序返回替换记录
func (r *Report) Records() []*ReplacementRecord {
	records := make([]*ReplacementRecord, 0, len(r.Replacements))
	for _, rec := range r.Replacements {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Field < records[j].Field
	})
	return records
}

// Summary 生成可读的文本摘要
func (r *Report) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "文档: %s (run %s)\n", r.Document, r.RunID)
	fmt.Fprintf(&sb, "修改段落: %d, 应用规则: %d, 未匹配规则: %d\n",
		r.ModifiedParagraphs, r.RulesApplied, r.UnmatchedRules)
	for _, rec := range r.Records() {
		fmt.Fprintf(&sb, "  %s -> %s\n", rec.Field, rec.LastValue)
	}
	for _, d := range r.Diagnostics {
		fmt.Fprintf(&sb, "  %s\n", d)
	}
	return sb.String()
}

// JSON 序列化报告
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
