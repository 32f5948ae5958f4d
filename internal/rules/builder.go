package rules

import (
	"strings"

	"github.com/allanpk716/hwpx_replacer/internal/domain"
	"github.com/allanpk716/hwpx_replacer/internal/matcher"
	"github.com/allanpk716/hwpx_replacer/internal/report"
)

// Builder 把用户字段值与映射转换为具体的替换规则
type Builder struct {
	registry *matcher.Registry
}

// NewBuilder 创建规则构建器
func NewBuilder(registry *matcher.Registry) *Builder {
	return &Builder{registry: registry}
}

// Build 按用户输入顺序生成规则，已解析的原文/修改对直接追加
func (b *Builder) Build(mapping domain.SchemaMapping, input *domain.SubstitutionInput) ([]domain.SubstitutionRule, []report.Diagnostic) {
	if input.Empty() {
		return nil, nil
	}

	keys := make(map[string]string, len(mapping))
	for name := range mapping {
		keys[matcher.Normalize(name)] = name
	}

	var rules []domain.SubstitutionRule
	var diags []report.Diagnostic
	for _, fv := range input.Fields {
		name, ok := keys[matcher.Normalize(fv.Field)]
		if !ok {
			diags = append(diags, report.Newf(report.FieldNotMapped, fv.Field, "字段不在映射中，已跳过"))
			continue
		}
		rules = append(rules, b.rule(name, mapping[name], fv.Value))
	}
	rules = append(rules, input.Pairs...)
	return rules, diags
}

func (b *Builder) rule(field string, loc domain.Location, value string) domain.SubstitutionRule {
	if loc.Kind == domain.LocationPositional {
		return domain.PositionalRule(field, loc.Anchor, loc.Offset, value)
	}

	line := loc.Line
	def, ok := b.registry.Lookup(field)
	if !ok || def.Pattern == nil {
		return domain.LineReplace(field, line, value)
	}
	return domain.LineReplace(field, line, b.rewriteLine(def, line, value))
}

// rewriteLine 在原始行中替换字段值
func (b *Builder) rewriteLine(def domain.FieldDefinition, line, value string) string {
	if old, ok := b.registry.ExtractValue(def.Name, line); ok {
		if old != "" {
			return strings.Replace(line, old, value, 1)
		}
		if end := separatorEnd(line); end >= 0 {
			return line[:end] + " " + value
		}
		return strings.TrimRight(line, " \t") + " " + value
	}

	if end := separatorEnd(line); end >= 0 {
		return line[:end] + " " + value
	}
	return value
}

// separatorEnd 返回第一个冒号（半角或全角）之后的字节位置，没有则返回 -1
func separatorEnd(line string) int {
	idx := strings.IndexAny(line, ":：")
	if idx < 0 {
		return -1
	}
	if line[idx] == ':' {
		return idx + 1
	}
	return idx + len("：")
}
