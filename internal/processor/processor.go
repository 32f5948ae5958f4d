package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allanpk716/hwpx_replacer/internal/domain"
	"github.com/allanpk716/hwpx_replacer/internal/logging"
	"github.com/allanpk716/hwpx_replacer/internal/matcher"
	"github.com/allanpk716/hwpx_replacer/internal/report"
	"github.com/allanpk716/hwpx_replacer/internal/rewriter"
	"github.com/allanpk716/hwpx_replacer/internal/rules"
	"github.com/allanpk716/hwpx_replacer/internal/schema"
	"github.com/allanpk716/hwpx_replacer/pkg/hwpx"
)

// Options 文档处理器的依赖
type Options struct {
	// Dialect 扩展名无法判断格式时使用的默认格式
	Dialect  hwpx.Dialect
	Registry *matcher.Registry
	// Fields 参与映射的字段，缺省为 Registry 中的全部字段
	Fields []domain.FieldDefinition
	Mapper *schema.Mapper
	// Store 映射模板缓存，可以为 nil
	Store schema.Store
	// Template 显式指定的映射模板，存在时跳过分析
	Template *schema.Template
}

// documentProcessor 文档处理器实现
type documentProcessor struct {
	opts    Options
	builder *rules.Builder
}

// NewDocumentProcessor 创建新的文档处理器
func NewDocumentProcessor(opts Options) domain.DocumentProcessor {
	return newDocumentProcessor(opts)
}

func newDocumentProcessor(opts Options) *documentProcessor {
	if opts.Dialect.Name == "" {
		opts.Dialect = hwpx.HWPX
	}
	if opts.Registry == nil {
		opts.Registry, _ = matcher.NewRegistry(matcher.DefaultFieldDefinitions())
	}
	if opts.Fields == nil {
		opts.Fields = opts.Registry.Fields()
	}
	if opts.Mapper == nil {
		opts.Mapper = schema.NewMapper(schema.DefaultOptions())
	}
	return &documentProcessor{
		opts:    opts,
		builder: rules.NewBuilder(opts.Registry),
	}
}

// ProcessDocument 读取文档，解析字段位置，生成并应用替换规则后写出
func (dp *documentProcessor) ProcessDocument(ctx context.Context, inputPath, outputPath string, input *domain.SubstitutionInput) (*report.Report, error) {
	if err := dp.ValidateDocument(inputPath); err != nil {
		return nil, fmt.Errorf("文档验证失败: %w", err)
	}
	if outputPath == "" {
		return nil, fmt.Errorf("输出路径不能为空")
	}
	if input.Empty() {
		return nil, fmt.Errorf("替换输入不能为空")
	}

	rep := report.New(inputPath)
	ctx = logging.WithDocument(ctx, inputPath, rep.RunID)
	logging.InfoContext(ctx, "开始处理文档", "output", outputPath)

	if err := checkContext(ctx); err != nil {
		return rep, err
	}
	started := time.Now()
	doc, err := dp.load(inputPath)
	if err != nil {
		return rep, err
	}
	defer doc.pkg.Close()
	corpus := hwpx.Corpus(doc.paragraphs)
	logging.Stage(ctx, "extract", started, "paragraphs", len(doc.paragraphs), "lines", len(corpus))

	var mapping domain.SchemaMapping
	if len(input.Fields) > 0 {
		if err := checkContext(ctx); err != nil {
			return rep, err
		}
		started = time.Now()
		mapping = dp.resolveMapping(ctx, corpus, rep)
		logging.Stage(ctx, "mapping", started, "fields", len(mapping), "cache_hit", rep.CacheHit)
	}

	if err := checkContext(ctx); err != nil {
		return rep, err
	}
	started = time.Now()
	ruleList, diags := dp.builder.Build(mapping, input)
	rep.Add(diags...)
	logging.Stage(ctx, "rules", started, "rules", len(ruleList))

	if err := checkContext(ctx); err != nil {
		return rep, err
	}
	started = time.Now()
	before := doc.snapshot()
	result := rewriter.Rewrite(doc.paragraphs, ruleList)
	rep.Add(result.Diagnostics...)
	rep.ModifiedParagraphs = result.Modified
	rep.RulesApplied = result.RulesApplied
	rep.UnmatchedRules = result.Unmatched
	for _, rule := range result.Applied {
		rep.RecordReplacement(ruleKey(rule), rule.Modified)
	}
	logging.Stage(ctx, "rewrite", started, "modified", result.Modified, "unmatched", result.Unmatched)

	if err := checkContext(ctx); err != nil {
		return rep, err
	}
	if err := doc.save(outputPath, before); err != nil {
		return rep, err
	}

	for _, d := range rep.Diagnostics {
		logging.WarnContext(ctx, "诊断", "kind", string(d.Kind), "field", d.Field, "message", d.Message)
	}
	logging.InfoContext(ctx, "文档处理完成",
		"modified", rep.ModifiedParagraphs, "applied", rep.RulesApplied, "unmatched", rep.UnmatchedRules)
	return rep, nil
}

// ValidateDocument 验证文档是否存在且格式受支持
func (dp *documentProcessor) ValidateDocument(inputPath string) error {
	if inputPath == "" {
		return fmt.Errorf("输入路径不能为空")
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		return fmt.Errorf("无法打开文档: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("输入路径是目录: %s", inputPath)
	}

	if !IsSupportedDocument(inputPath) {
		return fmt.Errorf("不支持的文档格式: %s", filepath.Ext(inputPath))
	}
	return nil
}

// IsSupportedDocument 根据扩展名判断是否为支持的文档
func IsSupportedDocument(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hwpx", ".docx":
		return true
	default:
		return false
	}
}

// dialectFor 按扩展名选择文档格式
func (dp *documentProcessor) dialectFor(path string) hwpx.Dialect {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hwpx":
		return hwpx.HWPX
	case ".docx":
		return hwpx.OOXML
	default:
		return dp.opts.Dialect
	}
}

// resolveMapping 优先使用显式模板，其次使用缓存，最后重新分析
func (dp *documentProcessor) resolveMapping(ctx context.Context, corpus []string, rep *report.Report) domain.SchemaMapping {
	if dp.opts.Template != nil {
		logging.DebugContext(ctx, "使用指定的映射模板")
		return dp.opts.Template.Mappings
	}

	fingerprint := schema.Fingerprint(corpus)
	if dp.opts.Store != nil {
		cached, err := dp.opts.Store.Load(ctx, fingerprint)
		switch {
		case err == nil && cached.Matches(corpus):
			rep.CacheHit = true
			return cached.Mappings
		case err != nil && !errors.Is(err, schema.ErrTemplateNotFound):
			rep.Add(report.Newf(report.CacheError, "", "读取映射缓存失败: %v", err))
		}
	}

	mapping, diags := dp.opts.Mapper.Map(corpus, dp.opts.Fields)
	rep.Add(diags...)

	if dp.opts.Store != nil {
		if err := dp.opts.Store.Save(ctx, schema.NewTemplate(corpus, mapping)); err != nil {
			rep.Add(report.Newf(report.CacheError, "", "写入映射缓存失败: %v", err))
		}
	}
	return mapping
}

// checkContext 上下文已取消时返回其错误
func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func ruleKey(rule domain.SubstitutionRule) string {
	if rule.Field != "" {
		return rule.Field
	}
	return rule.Original
}
