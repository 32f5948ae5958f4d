package processor

import (
	"fmt"

	"github.com/allanpk716/hwpx_replacer/internal/domain"
	"github.com/allanpk716/hwpx_replacer/pkg/hwpx"
)

// loadedDocument 已打开的文档包及其解析后的部件
type loadedDocument struct {
	pkg        hwpx.Package
	parts      []*hwpx.Document
	paragraphs []*hwpx.Paragraph
}

// load 打开文档包并按顺序解析全部文档部件
func (dp *documentProcessor) load(path string) (*loadedDocument, error) {
	dialect := dp.dialectFor(path)
	pkg, err := hwpx.OpenPackage(path, dialect)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExtraction, err)
	}

	doc := &loadedDocument{pkg: pkg}
	for _, name := range pkg.DocumentParts() {
		data, err := pkg.ReadPart(name)
		if err != nil {
			pkg.Close()
			return nil, fmt.Errorf("%w: 读取部件 %s 失败: %w", domain.ErrExtraction, name, err)
		}
		part, err := hwpx.Parse(name, data, dialect)
		if err != nil {
			pkg.Close()
			return nil, fmt.Errorf("%w: %w", domain.ErrExtraction, err)
		}
		doc.parts = append(doc.parts, part)
		doc.paragraphs = append(doc.paragraphs, part.Paragraphs()...)
	}
	if len(doc.parts) == 0 {
		pkg.Close()
		return nil, fmt.Errorf("%w: 文档中没有可处理的部件", domain.ErrExtraction)
	}
	return doc, nil
}

// snapshot 记录每个部件当前的段落文本
func (d *loadedDocument) snapshot() [][]string {
	texts := make([][]string, len(d.parts))
	for i, part := range d.parts {
		for _, p := range part.Paragraphs() {
			texts[i] = append(texts[i], p.Text())
		}
	}
	return texts
}

// save 只写回段落文本发生变化的部件，然后保存整个包
func (d *loadedDocument) save(outputPath string, before [][]string) error {
	after := d.snapshot()
	for i, part := range d.parts {
		if equalTexts(before[i], after[i]) {
			continue
		}
		if err := d.pkg.WritePart(part.Name, part.Bytes()); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrRewriteSerialization, err)
		}
	}
	if err := d.pkg.Save(outputPath); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrRewriteSerialization, err)
	}
	return nil
}

func equalTexts(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
