package matcher

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/allanpk716/hwpx_replacer/internal/domain"
)

// DefaultDateField 默认的日期字段名
const DefaultDateField = "작성날짜"

// DefaultFieldDefinitions 默认的证明书字段目录
func DefaultFieldDefinitions() []domain.FieldDefinition {
	return []domain.FieldDefinition{
		{Name: "신청인", Label: "신청인", Pattern: regexp.MustCompile(`신\s*청\s*인\s*[:：]\s*([^\n]*)`)},
		{Name: "주민등록번호", Label: "주민등록번호", Pattern: regexp.MustCompile(`주민등록번호\s*[:：]\s*([0-9\-\s]*)`)},
		{Name: "주소지", Label: "주소지", Pattern: regexp.MustCompile(`주\s*소\s*지\s*[:：]\s*([^\n]*)`)},
		{Name: "용역기간", Label: "용역기간", Pattern: regexp.MustCompile(`용\s*역\s*기\s*간\s*[:：]\s*([^\n]*)`)},
		{Name: "용역내용", Label: "용역내용", Pattern: regexp.MustCompile(`용\s*역\s*내\s*용\s*[:：]\s*([^\n]*)`)},
		{Name: "용도", Label: "용도", Pattern: regexp.MustCompile(`용\s*도\s*[:：]\s*([^\n]*)`)},
		{
			Name:    DefaultDateField,
			Label:   DefaultDateField,
			Pattern: regexp.MustCompile(`(\d{4}년\s*\d{1,2}월\s*\d{1,2}일|20XX년\s*X월\s*X일)`),
			Mode:    domain.LastMatchInCorpus,
		},
	}
}

// Registry 只读的字段模式目录，可在多个文档之间共享
type Registry struct {
	fields []domain.FieldDefinition
	index  map[string]int
}

// NewRegistry 创建字段目录，字段名（去空白后）必须唯一
func NewRegistry(fields []domain.FieldDefinition) (*Registry, error) {
	r := &Registry{
		fields: make([]domain.FieldDefinition, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		key := Normalize(f.Name)
		if key == "" {
			return nil, fmt.Errorf("字段名不能为空")
		}
		if _, exists := r.index[key]; exists {
			return nil, fmt.Errorf("字段名重复: %s", f.Name)
		}
		if f.Label == "" {
			f.Label = f.Name
		}
		r.index[key] = len(r.fields)
		r.fields = append(r.fields, f)
	}
	return r, nil
}

// Fields 按注册顺序返回字段定义
func (r *Registry) Fields() []domain.FieldDefinition {
	out := make([]domain.FieldDefinition, len(r.fields))
	copy(out, r.fields)
	return out
}

// Lookup 按名称查找字段，忽略空白差异
func (r *Registry) Lookup(name string) (domain.FieldDefinition, bool) {
	i, ok := r.index[Normalize(name)]
	if !ok {
		return domain.FieldDefinition{}, false
	}
	return r.fields[i], true
}

// Capture 在单行上应用字段模式，返回捕获值与是否命中
func Capture(def domain.FieldDefinition, line string) (string, bool) {
	if def.Pattern == nil {
		return "", false
	}
	m := def.Pattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(captured(def.Pattern, m)), true
}

func captured(re *regexp.Regexp, m []string) string {
	if re.NumSubexp() > 0 {
		return m[1]
	}
	return m[0]
}

// ExtractValue 从单行中提取字段值并应用包含保护
func (r *Registry) ExtractValue(name, line string) (string, bool) {
	def, ok := r.Lookup(name)
	if !ok {
		return "", false
	}
	value, ok := Capture(def, line)
	if !ok {
		return "", false
	}
	return r.ApplyContainmentGuard(def.Name, value), true
}

// ExtractAll 从整个语料中提取所有字段值，按注册顺序返回
// 日期类字段取语料中最后一次出现
func (r *Registry) ExtractAll(corpus []string) []domain.FieldValue {
	var values []domain.FieldValue
	full := strings.Join(corpus, "\n")

	for _, def := range r.fields {
		if def.Pattern == nil {
			continue
		}
		if def.Mode == domain.LastMatchInCorpus {
			all := def.Pattern.FindAllStringSubmatch(full, -1)
			if len(all) == 0 {
				continue
			}
			values = append(values, domain.FieldValue{
				Field: def.Name,
				Value: strings.TrimSpace(captured(def.Pattern, all[len(all)-1])),
			})
			continue
		}

		for _, line := range corpus {
			if value, ok := Capture(def, line); ok {
				values = append(values, domain.FieldValue{
					Field: def.Name,
					Value: r.ApplyContainmentGuard(def.Name, value),
				})
				break
			}
		}
	}
	return values
}

// ApplyContainmentGuard 值中原样出现其他字段名或标签时，截断到最早出现的位置之前
// 只做字面包含判断，标签的字符之间不允许插入空白
func (r *Registry) ApplyContainmentGuard(name, value string) string {
	self := Normalize(name)
	cut := len(value)
	for _, other := range r.fields {
		if Normalize(other.Name) == self {
			continue
		}
		for _, term := range guardTerms(other) {
			if start := strings.Index(value, term); start >= 0 && start < cut {
				cut = start
			}
		}
	}
	return strings.TrimSpace(value[:cut])
}

// guardTerms 字段名与去掉尾部冒号的标签
func guardTerms(def domain.FieldDefinition) []string {
	terms := []string{def.Name}
	label := strings.TrimRight(strings.TrimSpace(def.Label), ":： \t")
	if label != "" && label != def.Name {
		terms = append(terms, label)
	}
	return terms
}
