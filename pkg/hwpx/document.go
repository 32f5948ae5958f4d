package hwpx

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Document 解析后的文档部件（如 Contents/section0.xml）
type Document struct {
	Name    string
	root    *xmlquery.Node
	dialect Dialect
	paras   []*Paragraph
}

// Parse 解析文档部件的 XML 内容
func Parse(name string, data []byte, dialect Dialect) (*Document, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("解析 %s 失败: %w", name, err)
	}

	doc := &Document{Name: name, root: root, dialect: dialect}
	for _, n := range xmlquery.QuerySelectorAll(root, dialect.selector) {
		doc.paras = append(doc.paras, &Paragraph{node: n, dialect: dialect})
	}
	return doc, nil
}

// Paragraphs 按文档顺序返回所有段落（包括表格单元格中的段落）
func (d *Document) Paragraphs() []*Paragraph {
	return d.paras
}

// Dialect 返回文档使用的方言
func (d *Document) Dialect() Dialect {
	return d.dialect
}

// Bytes 将节点树紧凑地序列化，不做任何格式化
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		writeNode(&buf, c)
	}
	return buf.Bytes()
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\r", "&#xD;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\t", "&#x9;", "\n", "&#xA;", "\r", "&#xD;")
)

func writeNode(w *bytes.Buffer, n *xmlquery.Node) {
	switch n.Type {
	case xmlquery.DeclarationNode:
		w.WriteString("<?")
		w.WriteString(n.Data)
		for _, attr := range n.Attr {
			w.WriteString(" ")
			w.WriteString(attr.Name.Local)
			w.WriteString(`="`)
			w.WriteString(attrEscaper.Replace(attr.Value))
			w.WriteString(`"`)
		}
		w.WriteString("?>")

	case xmlquery.ElementNode:
		w.WriteString("<")
		w.WriteString(qualifiedName(n.Prefix, n.Data))
		for _, attr := range n.Attr {
			w.WriteString(" ")
			w.WriteString(attrName(attr))
			w.WriteString(`="`)
			w.WriteString(attrEscaper.Replace(attr.Value))
			w.WriteString(`"`)
		}
		if n.FirstChild == nil {
			w.WriteString("/>")
			return
		}
		w.WriteString(">")
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeNode(w, c)
		}
		w.WriteString("</")
		w.WriteString(qualifiedName(n.Prefix, n.Data))
		w.WriteString(">")

	case xmlquery.TextNode:
		w.WriteString(textEscaper.Replace(n.Data))

	case xmlquery.CharDataNode:
		w.WriteString("<![CDATA[")
		w.WriteString(n.Data)
		w.WriteString("]]>")

	case xmlquery.CommentNode:
		w.WriteString("<!--")
		w.WriteString(n.Data)
		w.WriteString("-->")

	default:
		w.WriteString(n.OutputXML(true))
	}
}

func qualifiedName(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

func attrName(attr xmlquery.Attr) string {
	space := attr.Name.Space
	switch {
	case space == "":
		return attr.Name.Local
	case space == xmlNamespace:
		return "xml:" + attr.Name.Local
	case strings.Contains(space, "/") || strings.Contains(space, ":"):
		// 未能映射到前缀的命名空间 URI
		return attr.Name.Local
	default:
		return space + ":" + attr.Name.Local
	}
}
