package processor

import (
	"context"
	"fmt"

	"github.com/allanpk716/hwpx_replacer/internal/domain"
	"github.com/allanpk716/hwpx_replacer/internal/logging"
	"github.com/allanpk716/hwpx_replacer/internal/report"
	"github.com/allanpk716/hwpx_replacer/internal/schema"
	"github.com/allanpk716/hwpx_replacer/pkg/hwpx"
)

// ReadCorpus 读取文档中所有非空段落的文本行
func ReadCorpus(opts Options, path string) ([]string, error) {
	return newDocumentProcessor(opts).readCorpus(path)
}

func (dp *documentProcessor) readCorpus(path string) ([]string, error) {
	if err := dp.ValidateDocument(path); err != nil {
		return nil, fmt.Errorf("文档验证失败: %w", err)
	}
	doc, err := dp.load(path)
	if err != nil {
		return nil, err
	}
	defer doc.pkg.Close()
	return hwpx.Corpus(doc.paragraphs), nil
}

// ExtractFields 从文档中提取已登记字段的当前值
func ExtractFields(ctx context.Context, opts Options, path string) ([]domain.FieldValue, error) {
	_, values, err := ExtractDocument(ctx, opts, path)
	return values, err
}

// ExtractDocument 只打开一次文档，返回文本行和已登记字段的当前值
func ExtractDocument(ctx context.Context, opts Options, path string) ([]string, []domain.FieldValue, error) {
	if err := checkContext(ctx); err != nil {
		return nil, nil, err
	}
	dp := newDocumentProcessor(opts)
	corpus, err := dp.readCorpus(path)
	if err != nil {
		return nil, nil, err
	}
	values := dp.opts.Registry.ExtractAll(corpus)
	logging.DebugContext(ctx, "字段提取完成", "document", path, "lines", len(corpus), "fields", len(values))
	return corpus, values, nil
}

// BuildTemplate 分析文档并生成映射模板
// master 不为 nil 时，其整行映射作为字段标签覆盖默认标签
func BuildTemplate(ctx context.Context, opts Options, path string, master *schema.Template) (*schema.Template, []report.Diagnostic, error) {
	if err := checkContext(ctx); err != nil {
		return nil, nil, err
	}
	dp := newDocumentProcessor(opts)
	corpus, err := dp.readCorpus(path)
	if err != nil {
		return nil, nil, err
	}

	fields := dp.opts.Fields
	if master != nil {
		fields = schema.ApplyLabels(fields, master.Labels())
	}

	mapping, diags := dp.opts.Mapper.Map(corpus, fields)
	logging.DebugContext(ctx, "映射分析完成", "document", path, "fields", len(mapping), "diagnostics", len(diags))
	return schema.NewTemplate(corpus, mapping), diags, nil
}
