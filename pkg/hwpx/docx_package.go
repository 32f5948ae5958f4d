package hwpx

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nguyenthenguyen/docx"
)

const docxDocumentPart = "word/document.xml"

// docxPackage 通过 nguyenthenguyen/docx 读写 Word 文档正文
type docxPackage struct {
	reader   *docx.ReplaceDocx
	editable *docx.Docx
}

func openDocxPackage(path string) (*docxPackage, error) {
	reader, err := docx.ReadDocxFile(path)
	if err != nil {
		return nil, fmt.Errorf("打开DOCX文件失败: %w", err)
	}
	return &docxPackage{reader: reader, editable: reader.Editable()}, nil
}

func (dp *docxPackage) DocumentParts() []string {
	return []string{docxDocumentPart}
}

func (dp *docxPackage) ReadPart(name string) ([]byte, error) {
	if name != docxDocumentPart {
		return nil, fmt.Errorf("文档包中不存在 %s", name)
	}
	return []byte(dp.editable.GetContent()), nil
}

func (dp *docxPackage) WritePart(name string, data []byte) error {
	if name != docxDocumentPart {
		return fmt.Errorf("文档包中不存在 %s", name)
	}
	dp.editable.SetContent(string(data))
	return nil
}

func (dp *docxPackage) Save(outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := dp.editable.WriteToFile(outputPath); err != nil {
		return fmt.Errorf("保存文档失败: %w", err)
	}
	return nil
}

func (dp *docxPackage) Close() error {
	return dp.reader.Close()
}
