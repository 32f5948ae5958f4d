package matcher

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// looseGap 允许出现在任意两个字符之间的空白
const looseGap = `[\s\p{Zs}]*`

// Normalize 规范化文本：NFC 组合、全角半角折叠、去除所有空白
func Normalize(s string) string {
	s = width.Fold.String(norm.NFC.String(s))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// ContainsNormalized 忽略空白判断 haystack 是否包含 needle
func ContainsNormalized(haystack, needle string) bool {
	n := Normalize(needle)
	if n == "" {
		return false
	}
	return strings.Contains(Normalize(haystack), n)
}

// HasNormalizedPrefix 忽略空白判断 line 是否以 label 开头
func HasNormalizedPrefix(line, label string) bool {
	l := Normalize(label)
	if l == "" {
		return false
	}
	return strings.HasPrefix(Normalize(line), l)
}

// FindLoose 在 text 中查找第一次出现的 fragment，允许两者空白不一致
// 返回原始 text 中的字节区间，不包含 fragment 首尾的空白
func FindLoose(text, fragment string) (int, int, bool) {
	re := LoosePattern(fragment)
	if re == nil {
		return 0, 0, false
	}
	loc := re.FindStringIndex(text)
	if loc == nil {
		return 0, 0, false
	}
	return loc[0], loc[1], true
}

// LoosePattern 把 fragment 编译为忽略空白的正则，fragment 全为空白时返回 nil
func LoosePattern(fragment string) *regexp.Regexp {
	var parts []string
	for _, r := range fragment {
		if unicode.IsSpace(r) {
			continue
		}
		parts = append(parts, regexp.QuoteMeta(string(r)))
	}
	if len(parts) == 0 {
		return nil
	}
	return regexp.MustCompile(strings.Join(parts, looseGap))
}

// ReplaceFirstLoose 把 text 中第一次出现的 fragment 替换为 replacement
func ReplaceFirstLoose(text, fragment, replacement string) (string, bool) {
	start, end, ok := FindLoose(text, fragment)
	if !ok {
		return text, false
	}
	return text[:start] + replacement + text[end:], true
}
