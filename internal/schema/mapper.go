package schema

import (
	"regexp"
	"sort"
	"strings"

	"github.com/allanpk716/hwpx_replacer/internal/domain"
	"github.com/allanpk716/hwpx_replacer/internal/matcher"
	"github.com/allanpk716/hwpx_replacer/internal/report"
)

const (
	// DefaultAnchor 默认的证明文句锚点
	DefaultAnchor = "위의 사실을 증명합니다"
	// DefaultOffset 默认的锚点偏移
	DefaultOffset = 2
)

// DefaultDatePattern 识别作成日期行的模式，年份允许两位或四位
var DefaultDatePattern = regexp.MustCompile(`\d{2,4}년\s*\d{1,2}월\s*\d{1,2}일`)

// DefaultSignatureMarkers 签名区标记，偏移行包含这些标记时回退偏移
func DefaultSignatureMarkers() []string {
	return []string{"회사", "상호", "대표", "Company", "Representative"}
}

// DefaultRangeSeparators 区间分隔符，包含它们的日期行不作为作成日期
func DefaultRangeSeparators() []string {
	return []string{"~", "∼", "～"}
}

// Options 映射器选项
type Options struct {
	Anchor           string
	// DatePattern 为 nil 时使用字段自身的模式
	DatePattern      *regexp.Regexp
	SignatureMarkers []string
	RangeSeparators  []string
	DefaultOffset    int
}

// DefaultOptions 返回默认选项
func DefaultOptions() Options {
	return Options{
		Anchor:           DefaultAnchor,
		DatePattern:      DefaultDatePattern,
		SignatureMarkers: DefaultSignatureMarkers(),
		RangeSeparators:  DefaultRangeSeparators(),
		DefaultOffset:    DefaultOffset,
	}
}

// Mapper 根据语料构建字段到文档位置的映射
type Mapper struct {
	opts Options
}

// NewMapper 创建映射器
func NewMapper(opts Options) *Mapper {
	if opts.DefaultOffset < 0 {
		opts.DefaultOffset = 0
	}
	return &Mapper{opts: opts}
}

// Map 为每个字段解析位置，无法解析的字段退化为其标签文本
func (m *Mapper) Map(corpus []string, fields []domain.FieldDefinition) (domain.SchemaMapping, []report.Diagnostic) {
	mapping := make(domain.SchemaMapping, len(fields))
	var diags []report.Diagnostic

	anchor := m.findAnchor(corpus)
	for _, def := range fields {
		if loc, ok := m.resolve(def, corpus, anchor); ok {
			mapping[def.Name] = loc
			continue
		}
		mapping[def.Name] = domain.LiteralLine(def.Label)
		diags = append(diags, report.Newf(report.SchemaUnresolved, def.Name, "未找到标签行，使用标签文本 %q", def.Label))
	}
	return mapping, diags
}

func (m *Mapper) resolve(def domain.FieldDefinition, corpus []string, anchor int) (domain.Location, bool) {
	if isDateField(def) {
		if line, ok := m.findDate(def, corpus, anchor); ok {
			return domain.LiteralLine(line), true
		}
		if anchor >= 0 {
			return domain.Positional(m.opts.Anchor, m.offset(corpus, anchor)), true
		}
	}

	for _, line := range corpus {
		if matcher.HasNormalizedPrefix(line, def.Label) {
			return domain.LiteralLine(line), true
		}
	}
	return domain.Location{}, false
}

func isDateField(def domain.FieldDefinition) bool {
	return def.Mode == domain.LastMatchInCorpus && def.Pattern != nil
}

// findAnchor 返回第一条包含锚点文句的行号，没有则返回 -1
func (m *Mapper) findAnchor(corpus []string) int {
	if m.opts.Anchor == "" {
		return -1
	}
	for i, line := range corpus {
		if matcher.ContainsNormalized(line, m.opts.Anchor) {
			return i
		}
	}
	return -1
}

// findDate 先在锚点之后顺序查找，再在整个语料中逆序查找
func (m *Mapper) findDate(def domain.FieldDefinition, corpus []string, anchor int) (string, bool) {
	if anchor >= 0 {
		for _, line := range corpus[anchor+1:] {
			if m.isSingleDate(def, line) {
				return line, true
			}
		}
	}
	for i := len(corpus) - 1; i >= 0; i-- {
		if m.isSingleDate(def, corpus[i]) {
			return corpus[i], true
		}
	}
	return "", false
}

func (m *Mapper) isSingleDate(def domain.FieldDefinition, line string) bool {
	pattern := m.opts.DatePattern
	if pattern == nil {
		pattern = def.Pattern
	}
	if !pattern.MatchString(line) {
		return false
	}
	for _, sep := range m.opts.RangeSeparators {
		if sep != "" && strings.Contains(line, sep) {
			return false
		}
	}
	return true
}

// offset 从默认偏移开始，越界或落在签名区时逐步回退
func (m *Mapper) offset(corpus []string, anchor int) int {
	offset := m.opts.DefaultOffset
	for offset > 1 && (anchor+offset >= len(corpus) || m.isSignature(corpus[anchor+offset])) {
		offset--
	}
	if offset == 1 && anchor+1 >= len(corpus) {
		offset = 0
	}
	return offset
}

func (m *Mapper) isSignature(line string) bool {
	for _, marker := range m.opts.SignatureMarkers {
		if matcher.ContainsNormalized(line, marker) {
			return true
		}
	}
	return false
}

// ApplyLabels 用主模板中的标签覆盖字段标签
// 主模板中未注册的字段按名称排序追加，仅按标签匹配
func ApplyLabels(fields []domain.FieldDefinition, labels map[string]string) []domain.FieldDefinition {
	out := make([]domain.FieldDefinition, 0, len(fields)+len(labels))
	used := make(map[string]bool, len(labels))
	byKey := make(map[string]string, len(labels))
	for name := range labels {
		byKey[matcher.Normalize(name)] = name
	}

	for _, def := range fields {
		if name, ok := byKey[matcher.Normalize(def.Name)]; ok {
			if label := labels[name]; label != "" {
				def.Label = label
			}
			used[name] = true
		}
		out = append(out, def)
	}

	var extras []string
	for name := range labels {
		if !used[name] {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	for _, name := range extras {
		label := labels[name]
		if label == "" {
			label = name
		}
		out = append(out, domain.FieldDefinition{Name: name, Label: label})
	}
	return out
}
