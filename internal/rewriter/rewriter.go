package rewriter

import (
	"errors"
	"strings"

	"github.com/allanpk716/hwpx_replacer/internal/domain"
	"github.com/allanpk716/hwpx_replacer/internal/matcher"
	"github.com/allanpk716/hwpx_replacer/internal/report"
	"github.com/allanpk716/hwpx_replacer/pkg/hwpx"
)

// Result 一次改写的统计
type Result struct {
	// Modified 文本发生变化的段落数
	Modified int
	// RulesApplied 至少命中一次的规则数
	RulesApplied int
	// Unmatched 没有命中任何段落的规则数
	Unmatched int
	// Applied 命中的规则，按规则顺序
	Applied     []domain.SubstitutionRule
	Diagnostics []report.Diagnostic
}

type pass struct {
	paragraphs []*hwpx.Paragraph
	modified   map[int]bool
	result     *Result
}

// Rewrite 先处理锚点规则，再处理行替换规则
func Rewrite(paragraphs []*hwpx.Paragraph, rules []domain.SubstitutionRule) *Result {
	p := &pass{
		paragraphs: paragraphs,
		modified:   make(map[int]bool),
		result:     &Result{},
	}

	var lines []domain.SubstitutionRule
	for _, rule := range rules {
		if rule.Kind == domain.RulePositional {
			p.positional(rule)
			continue
		}
		lines = append(lines, rule)
	}
	p.lineReplace(lines)

	p.result.Modified = len(p.modified)
	return p.result
}

func (p *pass) positional(rule domain.SubstitutionRule) {
	anchor := -1
	for i, para := range p.paragraphs {
		if matcher.ContainsNormalized(para.Text(), rule.Anchor) {
			anchor = i
			break
		}
	}
	if anchor < 0 {
		p.unmatched(rule, report.Newf(report.RuleNotApplicable, rule.Field, "未找到锚点 %q", rule.Anchor))
		return
	}

	target := p.advance(anchor, rule.Offset)
	if target < 0 {
		p.unmatched(rule, report.Newf(report.PositionalOutOfRange, rule.Field,
			"锚点段落 %d 偏移 %d 超出段落范围 %d", anchor, rule.Offset, len(p.paragraphs)))
		return
	}

	changed, err := p.paragraphs[target].SetLiteral(rule.Modified)
	if err != nil {
		p.unmatched(rule, malformed(rule, target, err))
		return
	}
	if changed {
		p.modified[target] = true
	}
	p.applied(rule)
}

// advance 从锚点段落起向后数 offset 个非空段落，与语料行的计数方式一致
// 超出范围返回 -1
func (p *pass) advance(anchor, offset int) int {
	if offset < 0 {
		return -1
	}
	target := anchor
	for offset > 0 {
		target++
		if target >= len(p.paragraphs) {
			return -1
		}
		if strings.TrimSpace(p.paragraphs[target].Text()) != "" {
			offset--
		}
	}
	return target
}

func (p *pass) lineReplace(rules []domain.SubstitutionRule) {
	if len(rules) == 0 {
		return
	}
	hit := make([]bool, len(rules))

	for i, para := range p.paragraphs {
		text := para.Text()
		updated := text
		var matched []int
		for j, rule := range rules {
			if next, ok := matcher.ReplaceFirstLoose(updated, rule.Original, rule.Modified); ok {
				updated = next
				matched = append(matched, j)
			}
		}
		if len(matched) == 0 {
			continue
		}

		changed, err := para.SetText(updated)
		if err != nil {
			p.result.Diagnostics = append(p.result.Diagnostics, malformed(rules[matched[0]], i, err))
			continue
		}
		if changed {
			p.modified[i] = true
		}
		for _, j := range matched {
			hit[j] = true
		}
	}

	for j, rule := range rules {
		if hit[j] {
			p.applied(rule)
			continue
		}
		p.unmatched(rule, report.Newf(report.RuleNotApplicable, rule.Field, "文档中未找到原文 %q", rule.Original))
	}
}

func (p *pass) applied(rule domain.SubstitutionRule) {
	p.result.RulesApplied++
	p.result.Applied = append(p.result.Applied, rule)
}

func (p *pass) unmatched(rule domain.SubstitutionRule, d report.Diagnostic) {
	p.result.Unmatched++
	p.result.Diagnostics = append(p.result.Diagnostics, d)
}

func malformed(rule domain.SubstitutionRule, index int, err error) report.Diagnostic {
	if errors.Is(err, hwpx.ErrMalformedParagraph) {
		return report.Newf(report.MalformedParagraph, rule.Field, "段落 %d 结构异常，未修改", index)
	}
	return report.Newf(report.MalformedParagraph, rule.Field, "段落 %d 修改失败: %v", index, err)
}
