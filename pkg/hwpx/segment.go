package hwpx

import "strings"

// SegmentKind 文本片段类型
type SegmentKind int

const (
	// SegmentText 字面文本
	SegmentText SegmentKind = iota
	// SegmentTab 制表符
	SegmentTab
	// SegmentBreak 行内换行
	SegmentBreak
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentText:
		return "text"
	case SegmentTab:
		return "tab"
	case SegmentBreak:
		return "break"
	default:
		return "unknown"
	}
}

// Segment 段落中最小的内容单元
type Segment struct {
	Kind SegmentKind
	Text string
}

// Text 创建字面文本片段
func Text(s string) Segment { return Segment{Kind: SegmentText, Text: s} }

// Tab 创建制表符片段
func Tab() Segment { return Segment{Kind: SegmentTab} }

// Break 创建换行片段
func Break() Segment { return Segment{Kind: SegmentBreak} }

// String 返回片段在扁平文本中的表示
func (s Segment) String() string {
	switch s.Kind {
	case SegmentTab:
		return "\t"
	case SegmentBreak:
		return "\n"
	default:
		return s.Text
	}
}

// FlattenSegments 按顺序拼接片段得到扁平文本
func FlattenSegments(segments []Segment) string {
	var sb strings.Builder
	for _, seg := range segments {
		sb.WriteString(seg.String())
	}
	return sb.String()
}

// SplitText 将扁平文本按制表符/换行拆分为片段序列，是 FlattenSegments 的逆运算
func SplitText(text string) []Segment {
	var segments []Segment
	start := 0
	for i := 0; i < len(text); i++ {
		var marker Segment
		switch text[i] {
		case '\t':
			marker = Tab()
		case '\n':
			marker = Break()
		default:
			continue
		}
		if i > start {
			segments = append(segments, Text(text[start:i]))
		}
		segments = append(segments, marker)
		start = i + 1
	}
	if start < len(text) {
		segments = append(segments, Text(text[start:]))
	}
	return segments
}

// Corpus 提取所有非空段落的文本行（去除首尾空白），空白段落被跳过
func Corpus(paragraphs []*Paragraph) []string {
	lines := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		line := strings.TrimSpace(p.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
