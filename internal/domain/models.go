package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/allanpk716/hwpx_replacer/internal/report"
)

// DocumentProcessor 文档处理器接口
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, inputPath, outputPath string, input *SubstitutionInput) (*report.Report, error)
	ValidateDocument(inputPath string) error
}

// MatchMode 字段模式的匹配方式
type MatchMode int

const (
	// FirstMatchPerLine 在单行上匹配，取第一个命中
	FirstMatchPerLine MatchMode = iota
	// LastMatchInCorpus 在整个语料中匹配，取最后一个命中（日期类字段）
	LastMatchInCorpus
)

func (m MatchMode) String() string {
	if m == LastMatchInCorpus {
		return "last-match-in-corpus"
	}
	return "first-match-per-line"
}

// ParseMatchMode 解析配置中的匹配方式
func ParseMatchMode(s string) (MatchMode, error) {
	switch s {
	case "", "first", "first-match-per-line":
		return FirstMatchPerLine, nil
	case "last", "last-match-in-corpus":
		return LastMatchInCorpus, nil
	default:
		return FirstMatchPerLine, fmt.Errorf("未知的匹配方式: %s", s)
	}
}

// FieldDefinition 字段定义
type FieldDefinition struct {
	Name    string
	Label   string
	Pattern *regexp.Regexp
	Mode    MatchMode
}

// LocationKind 字段在文档中的定位方式
type LocationKind int

const (
	// LocationLiteral 按整行文本定位
	LocationLiteral LocationKind = iota
	// LocationPositional 按锚点行加偏移定位
	LocationPositional
)

// Location 字段映射到的文档位置
type Location struct {
	Kind   LocationKind
	Line   string
	Anchor string
	Offset int
}

// LiteralLine 创建整行定位
func LiteralLine(line string) Location {
	return Location{Kind: LocationLiteral, Line: line}
}

// Positional 创建锚点+偏移定位
func Positional(anchor string, offset int) Location {
	return Location{Kind: LocationPositional, Anchor: anchor, Offset: offset}
}

type positionalJSON struct {
	Anchor string `json:"anchor"`
	Offset int    `json:"offset"`
}

// MarshalJSON 整行定位序列化为字符串，锚点定位序列化为 {anchor, offset}
func (l Location) MarshalJSON() ([]byte, error) {
	if l.Kind == LocationPositional {
		return json.Marshal(positionalJSON{Anchor: l.Anchor, Offset: l.Offset})
	}
	return json.Marshal(l.Line)
}

// UnmarshalJSON 读取字符串或 {anchor, offset} 对象
func (l *Location) UnmarshalJSON(data []byte) error {
	var line string
	if err := json.Unmarshal(data, &line); err == nil {
		*l = LiteralLine(line)
		return nil
	}
	var pos positionalJSON
	if err := json.Unmarshal(data, &pos); err != nil {
		return fmt.Errorf("无法解析字段位置: %s", string(data))
	}
	if pos.Anchor == "" {
		return fmt.Errorf("锚点定位缺少 anchor: %s", string(data))
	}
	*l = Positional(pos.Anchor, pos.Offset)
	return nil
}

// SchemaMapping 字段名到文档位置的映射
type SchemaMapping map[string]Location

// RuleKind 替换规则类型
type RuleKind int

const (
	// RuleLineReplace 按原始行文本替换
	RuleLineReplace RuleKind = iota
	// RulePositional 按锚点+偏移替换整段
	RulePositional
)

// SubstitutionRule 一条具体的替换规则
type SubstitutionRule struct {
	Kind     RuleKind
	Field    string
	Original string
	Modified string
	Anchor   string
	Offset   int
}

// LineReplace 创建行替换规则
func LineReplace(field, original, modified string) SubstitutionRule {
	return SubstitutionRule{Kind: RuleLineReplace, Field: field, Original: original, Modified: modified}
}

// PositionalRule 创建锚点替换规则，Modified 保存新值
func PositionalRule(field, anchor string, offset int, value string) SubstitutionRule {
	return SubstitutionRule{Kind: RulePositional, Field: field, Anchor: anchor, Offset: offset, Modified: value}
}

// FieldValue 用户提供的字段值
type FieldValue struct {
	Field string
	Value string
}

// SubstitutionInput 用户替换输入：字段值列表，或已解析的原文/修改对
type SubstitutionInput struct {
	Fields []FieldValue
	Pairs  []SubstitutionRule
}

// Empty 输入中没有任何替换内容
func (in *SubstitutionInput) Empty() bool {
	return in == nil || (len(in.Fields) == 0 && len(in.Pairs) == 0)
}

// ProcessResult 批量处理结果
type ProcessResult struct {
	Success        bool
	ProcessedFiles int
	FailedFiles    int
	Replacements   int
	Errors         []error
	Reports        []*report.Report
}

// DocumentInfo 文档信息
type DocumentInfo struct {
	Path     string
	Size     int64
	Modified bool
}
