package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/allanpk716/hwpx_replacer/internal/domain"
	"github.com/allanpk716/hwpx_replacer/internal/logging"
	"golang.org/x/sync/errgroup"
)

// BatchOptions 批量处理选项
type BatchOptions struct {
	MaxConcurrentFiles int
	ExcludePatterns    []string
}

// BatchProcessor 并发处理目录中的所有文档
type BatchProcessor struct {
	processor domain.DocumentProcessor
	opts      BatchOptions
}

// NewBatchProcessor 创建批量处理器
func NewBatchProcessor(processor domain.DocumentProcessor, opts BatchOptions) *BatchProcessor {
	if opts.MaxConcurrentFiles < 1 {
		opts.MaxConcurrentFiles = 1
	}
	return &BatchProcessor{processor: processor, opts: opts}
}

// ProcessDirectory 处理 inputDir 下的所有文档，按相对路径写入 outputDir
// 单个文档失败不影响其他文档
func (bp *BatchProcessor) ProcessDirectory(ctx context.Context, inputDir, outputDir string, input *domain.SubstitutionInput) (*domain.ProcessResult, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}

	files, err := FindDocuments(inputDir, bp.opts.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("查找文档失败: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("在目录 %s 中没有找到 HWPX 或 DOCX 文件", inputDir)
	}

	logging.Info("找到待处理文档", "count", len(files), "concurrency", bp.opts.MaxConcurrentFiles)

	result := &domain.ProcessResult{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.opts.MaxConcurrentFiles)
	for i, inputFile := range files {
		i, inputFile := i, inputFile
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			relPath, err := filepath.Rel(inputDir, inputFile)
			if err != nil {
				return fmt.Errorf("计算相对路径失败: %w", err)
			}
			outputFile := filepath.Join(outputDir, relPath)
			if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
				return fmt.Errorf("创建输出文件目录失败: %w", err)
			}

			logging.Info(fmt.Sprintf("[%d/%d] 处理文件", i+1, len(files)), "file", inputFile)
			rep, err := bp.processor.ProcessDocument(gctx, inputFile, outputFile, input)

			mu.Lock()
			defer mu.Unlock()
			if rep != nil {
				result.Reports = append(result.Reports, rep)
			}
			if err != nil {
				logging.Error("处理文件失败", "file", inputFile, "error", err)
				result.FailedFiles++
				result.Errors = append(result.Errors, fmt.Errorf("%s: %w", inputFile, err))
				return nil
			}
			result.ProcessedFiles++
			result.Replacements += rep.RulesApplied
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	result.Success = result.FailedFiles == 0
	logging.Info("批量处理完成", "processed", result.ProcessedFiles, "failed", result.FailedFiles)
	return result, nil
}

// FindDocuments 递归查找目录中的 HWPX 和 DOCX 文件，跳过临时文件和排除模式
func FindDocuments(dir string, excludePatterns []string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !IsSupportedDocument(path) {
			return nil
		}

		name := filepath.Base(path)
		if strings.HasPrefix(name, "~$") || excluded(name, excludePatterns) {
			return nil
		}
		files = append(files, path)
		return nil
	})

	return files, err
}

func excluded(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
