package hwpx

import (
	"encoding/xml"
	"errors"
	"strings"

	"github.com/antchfx/xmlquery"
)

// ErrMalformedParagraph 段落没有可写入的文本运行
var ErrMalformedParagraph = errors.New("段落结构异常")

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// Paragraph 文档段落，是重写的最小单元
type Paragraph struct {
	node    *xmlquery.Node
	dialect Dialect
}

// Run 段落中的文本运行（样式容器）
type Run struct {
	node    *xmlquery.Node
	dialect Dialect
}

// Runs 按顺序返回段落的直接文本运行
func (p *Paragraph) Runs() []*Run {
	var runs []*Run
	for c := p.node.FirstChild; c != nil; c = c.NextSibling {
		if p.dialect.is(c, p.dialect.Run) {
			runs = append(runs, &Run{node: c, dialect: p.dialect})
		}
	}
	return runs
}

// Segments 按顺序返回段落所有运行中的片段
func (p *Paragraph) Segments() []Segment {
	var segments []Segment
	for _, r := range p.Runs() {
		segments = append(segments, r.Segments()...)
	}
	return segments
}

// Text 返回段落的扁平文本
func (p *Paragraph) Text() string {
	return FlattenSegments(p.Segments())
}

// StyleRef 返回段落样式引用，没有时为空
func (p *Paragraph) StyleRef() string {
	if p.dialect.StyleAttr == "" {
		return ""
	}
	return p.node.SelectAttr(p.dialect.StyleAttr)
}

// HasLayout 段落是否携带排版缓存
func (p *Paragraph) HasLayout() bool {
	return p.layoutNode() != nil
}

func (p *Paragraph) layoutNode() *xmlquery.Node {
	for c := p.node.FirstChild; c != nil; c = c.NextSibling {
		if p.dialect.is(c, p.dialect.LayoutCache) {
			return c
		}
	}
	return nil
}

// DropLayout 删除段落上的排版缓存，返回是否删除了内容
func (p *Paragraph) DropLayout() bool {
	dropped := false
	for n := p.layoutNode(); n != nil; n = p.layoutNode() {
		xmlquery.RemoveFromTree(n)
		dropped = true
	}
	return dropped
}

// Malformed 段落没有运行，或所有运行只包含无法识别的子元素
func (p *Paragraph) Malformed() bool {
	runs := p.Runs()
	if len(runs) == 0 {
		return true
	}
	for _, r := range runs {
		if r.writable() {
			return false
		}
	}
	return true
}

// SetText 用新的扁平文本重建段落，制表符/换行还原为对应片段。
// 文本未变化时不做任何修改，返回 false。
func (p *Paragraph) SetText(text string) (bool, error) {
	return p.replace(text, SplitText(text))
}

// SetLiteral 用单个字面文本片段替换段落全部内容，原有制表符/换行结构被折叠
func (p *Paragraph) SetLiteral(text string) (bool, error) {
	var segments []Segment
	if text != "" {
		segments = []Segment{Text(text)}
	}
	return p.replace(text, segments)
}

func (p *Paragraph) replace(text string, segments []Segment) (bool, error) {
	if p.Malformed() {
		return false, ErrMalformedParagraph
	}
	if p.Text() == text {
		return false, nil
	}
	p.rebuild(segments)
	p.DropLayout()
	return true, nil
}

// rebuild 删除所有运行中的旧片段，在第一个运行中写入新的片段序列
func (p *Paragraph) rebuild(segments []Segment) {
	runs := p.Runs()
	first := runs[0]

	var stale []*xmlquery.Node
	for _, r := range runs {
		for c := r.node.FirstChild; c != nil; c = c.NextSibling {
			if p.dialect.isSegment(c) {
				stale = append(stale, c)
			}
		}
	}

	var ref *xmlquery.Node
	for c := first.node.FirstChild; c != nil; c = c.NextSibling {
		if p.dialect.isSegment(c) {
			ref = c
			break
		}
	}

	for _, n := range p.segmentNodes(segments) {
		if ref != nil {
			insertBefore(ref, n)
		} else {
			xmlquery.AddChild(first.node, n)
		}
	}

	for _, n := range stale {
		xmlquery.RemoveFromTree(n)
	}
}

// segmentNodes 将片段序列转换为本方言的标记节点
func (p *Paragraph) segmentNodes(segments []Segment) []*xmlquery.Node {
	if len(segments) == 0 {
		return nil
	}
	d := p.dialect

	if d.InlineControls {
		leaf := p.element(d.Text)
		for _, seg := range segments {
			xmlquery.AddChild(leaf, p.segmentNode(seg))
		}
		return []*xmlquery.Node{leaf}
	}

	nodes := make([]*xmlquery.Node, 0, len(segments))
	for _, seg := range segments {
		if seg.Kind != SegmentText {
			nodes = append(nodes, p.segmentNode(seg))
			continue
		}
		leaf := p.element(d.Text)
		if d.PreserveSpace && strings.TrimSpace(seg.Text) != seg.Text {
			leaf.Attr = append(leaf.Attr, xmlquery.Attr{
				Name:         xml.Name{Space: "xml", Local: "space"},
				Value:        "preserve",
				NamespaceURI: xmlNamespace,
			})
		}
		xmlquery.AddChild(leaf, &xmlquery.Node{Type: xmlquery.TextNode, Data: seg.Text})
		nodes = append(nodes, leaf)
	}
	return nodes
}

func (p *Paragraph) segmentNode(seg Segment) *xmlquery.Node {
	switch seg.Kind {
	case SegmentTab:
		return p.element(p.dialect.Tab)
	case SegmentBreak:
		return p.element(p.dialect.Breaks[0])
	default:
		return &xmlquery.Node{Type: xmlquery.TextNode, Data: seg.Text}
	}
}

func (p *Paragraph) element(local string) *xmlquery.Node {
	return &xmlquery.Node{
		Type:         xmlquery.ElementNode,
		Data:         local,
		Prefix:       p.node.Prefix,
		NamespaceURI: p.node.NamespaceURI,
	}
}

// Segments 返回运行中的片段
func (r *Run) Segments() []Segment {
	d := r.dialect
	var segments []Segment
	for c := r.node.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case d.is(c, d.Text):
			segments = appendLeaf(segments, d, c)
		case d.is(c, d.Tab):
			segments = append(segments, Tab())
		case d.isBreak(c):
			segments = append(segments, Break())
		}
	}
	return segments
}

// Empty 运行中不再包含任何片段
func (r *Run) Empty() bool {
	for c := r.node.FirstChild; c != nil; c = c.NextSibling {
		if r.dialect.isSegment(c) {
			return false
		}
	}
	return true
}

// writable 运行为空，或包含可识别的片段/运行属性
func (r *Run) writable() bool {
	hasElement := false
	for c := r.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		hasElement = true
		if r.dialect.isSegment(c) || r.dialect.is(c, r.dialect.RunProperties) {
			return true
		}
	}
	return !hasElement
}

// appendLeaf 读取文本元素的混合内容
func appendLeaf(segments []Segment, d Dialect, leaf *xmlquery.Node) []Segment {
	for c := leaf.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.TextNode, xmlquery.CharDataNode:
			if c.Data != "" {
				segments = append(segments, Text(c.Data))
			}
		case xmlquery.ElementNode:
			if d.is(c, d.Tab) {
				segments = append(segments, Tab())
			} else if d.isBreak(c) {
				segments = append(segments, Break())
			}
		}
	}
	return segments
}

func insertBefore(ref, n *xmlquery.Node) {
	n.Parent = ref.Parent
	n.NextSibling = ref
	n.PrevSibling = ref.PrevSibling
	if ref.PrevSibling != nil {
		ref.PrevSibling.NextSibling = n
	} else if ref.Parent != nil {
		ref.Parent.FirstChild = n
	}
	ref.PrevSibling = n
}
