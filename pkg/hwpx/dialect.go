package hwpx

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Dialect 描述一种文档标记格式中段落/文本运行/文本片段的元素名称
type Dialect struct {
	Name      string
	Namespace string
	Prefix    string

	Paragraph string
	Run       string
	Text      string
	Tab       string
	Breaks    []string

	// RunProperties 运行属性元素（如 w:rPr），重建时保留在原位
	RunProperties string
	// LayoutCache 段落上缓存的排版信息元素，文本变化时必须删除
	LayoutCache string
	// StyleAttr 段落样式引用属性
	StyleAttr string

	// InlineControls 为 true 时制表符/换行作为文本元素的子节点出现（HWPX），
	// 否则作为运行的直接子节点与文本元素并列（OOXML）
	InlineControls bool
	// PreserveSpace 写出文本元素时附加 xml:space="preserve"
	PreserveSpace bool

	// Parts 匹配包内需要处理的文档部件
	Parts func(name string) bool

	selector *xpath.Expr
}

// HWPX 韩文 Hancom Office 的 OWPML 段落格式
var HWPX = newDialect(Dialect{
	Name:           "hwpx",
	Namespace:      "http://www.hancom.co.kr/hwpml/2011/paragraph",
	Prefix:         "hp",
	Paragraph:      "p",
	Run:            "run",
	Text:           "t",
	Tab:            "tab",
	Breaks:         []string{"lineBreak"},
	LayoutCache:    "linesegarray",
	StyleAttr:      "paraPrIDRef",
	InlineControls: true,
	Parts:          isSectionPart,
})

// OOXML Word 文档（DOCX）的 WordprocessingML 段落格式
var OOXML = newDialect(Dialect{
	Name:          "docx",
	Namespace:     "http://schemas.openxmlformats.org/wordprocessingml/2006/main",
	Prefix:        "w",
	Paragraph:     "p",
	Run:           "r",
	Text:          "t",
	Tab:           "tab",
	Breaks:        []string{"br", "cr"},
	RunProperties: "rPr",
	PreserveSpace: true,
	Parts: func(name string) bool {
		return name == docxDocumentPart
	},
})

// DialectByName 根据名称获取方言
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "hwpx", "owpml":
		return HWPX, nil
	case "docx", "ooxml":
		return OOXML, nil
	default:
		return Dialect{}, fmt.Errorf("不支持的文档格式: %s", name)
	}
}

func newDialect(d Dialect) Dialect {
	d.selector = xpath.MustCompile(fmt.Sprintf(
		"//*[local-name()='%s' and namespace-uri()='%s']", d.Paragraph, d.Namespace))
	return d
}

// is 判断节点是否为本方言中指定本地名称的元素
func (d Dialect) is(n *xmlquery.Node, local string) bool {
	if n == nil || n.Type != xmlquery.ElementNode || local == "" || n.Data != local {
		return false
	}
	if n.NamespaceURI != "" {
		return n.NamespaceURI == d.Namespace
	}
	return n.Prefix == d.Prefix
}

func (d Dialect) isBreak(n *xmlquery.Node) bool {
	for _, name := range d.Breaks {
		if d.is(n, name) {
			return true
		}
	}
	return false
}

// isSegment 判断运行子节点是否承载文本片段
func (d Dialect) isSegment(n *xmlquery.Node) bool {
	return d.is(n, d.Text) || d.is(n, d.Tab) || d.isBreak(n)
}
