package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/allanpk716/hwpx_replacer/internal/domain"
	"github.com/allanpk716/hwpx_replacer/internal/logging"
	"github.com/allanpk716/hwpx_replacer/internal/processor"
	"github.com/allanpk716/hwpx_replacer/internal/report"
	"github.com/allanpk716/hwpx_replacer/internal/rules"
	"github.com/allanpk716/hwpx_replacer/internal/schema"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewRootCommand 创建根命令
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   AppName,
		Short: "HWPX/DOCX 证明书字段批量替换工具",
		Long: `按字段标签定位文档中的段落并替换字段值。

支持的格式: HWPX（默认）、DOCX

示例:
  hwpx-replacer fill --input cert.hwpx --data '{"신청인": "홍길동"}'
  hwpx-replacer fill --input-dir certs --modify values.yaml --config config.yaml
  hwpx-replacer extract --input cert.hwpx
  hwpx-replacer schema --input cert.hwpx --output cert.schema.json`,
		Version:       AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(fillCmd())
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(schemaCmd())
	return rootCmd
}

func fillCmd() *cobra.Command {
	args := &CommandLineArgs{}
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "替换文档中的字段值",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(args.ConfigFile, args.Verbose, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := ValidateArgs(args, a.cfg.ProcessingConfig.OutputSuffix); err != nil {
				return fmt.Errorf("参数验证失败: %w", err)
			}

			input, err := loadSubstitutionInput(args)
			if err != nil {
				return err
			}

			if args.TemplateFile != "" {
				t, err := schema.LoadTemplateFile(args.TemplateFile)
				if err != nil {
					return fmt.Errorf("加载映射模板失败: %w", err)
				}
				a.opts.Template = t
			}

			logging.Info(fmt.Sprintf("启动 %s v%s", AppName, AppVersion), "project", a.cfg.ProjectName)
			if args.InputFile != "" {
				return runSingle(cmd.Context(), cmd.OutOrStdout(), a, args, input)
			}
			return runBatch(cmd.Context(), cmd.OutOrStdout(), a, args, input)
		},
	}

	cmd.Flags().StringVar(&args.ConfigFile, "config", "", "配置文件路径（JSON 或 YAML）")
	cmd.Flags().StringVar(&args.InputFile, "input", "", "输入文档路径")
	cmd.Flags().StringVar(&args.OutputFile, "output", "", "输出文档路径")
	cmd.Flags().StringVar(&args.InputDir, "input-dir", "", "输入目录路径（批量处理）")
	cmd.Flags().StringVar(&args.OutputDir, "output-dir", "", "输出目录路径（批量处理）")
	cmd.Flags().StringVar(&args.ModifyFile, "modify", "", "替换内容文件（JSON 或 YAML）")
	cmd.Flags().StringVar(&args.Data, "data", "", "替换内容（JSON 字符串）")
	cmd.Flags().StringVar(&args.TemplateFile, "template", "", "映射模板文件")
	cmd.Flags().StringVar(&args.ReportFile, "report", "", "处理报告输出路径（JSON）")
	cmd.Flags().BoolVar(&args.Verbose, "verbose", false, "详细输出")
	return cmd
}

func loadSubstitutionInput(args *CommandLineArgs) (*domain.SubstitutionInput, error) {
	var (
		input *domain.SubstitutionInput
		err   error
	)
	if args.ModifyFile != "" {
		input, err = rules.LoadInputFile(args.ModifyFile)
	} else {
		input, err = rules.ParseInput([]byte(args.Data))
	}
	if err != nil {
		return nil, err
	}
	if input.Empty() {
		return nil, fmt.Errorf("替换内容为空")
	}
	return input, nil
}

func runSingle(ctx context.Context, out io.Writer, a *app, args *CommandLineArgs, input *domain.SubstitutionInput) error {
	logging.Info("处理文件", "input", args.InputFile, "output", args.OutputFile)

	dp := processor.NewDocumentProcessor(a.opts)
	rep, err := dp.ProcessDocument(ctx, args.InputFile, args.OutputFile, input)
	if err != nil {
		return fmt.Errorf("处理文件失败: %w", err)
	}

	fmt.Fprintln(out, rep.Summary())
	if args.ReportFile != "" {
		return writeReports(args.ReportFile, rep)
	}
	return nil
}

func runBatch(ctx context.Context, out io.Writer, a *app, args *CommandLineArgs, input *domain.SubstitutionInput) error {
	pc := a.cfg.ProcessingConfig
	bp := processor.NewBatchProcessor(processor.NewDocumentProcessor(a.opts), processor.BatchOptions{
		MaxConcurrentFiles: pc.MaxConcurrentFiles,
		ExcludePatterns:    pc.ExcludePatterns,
	})

	result, err := bp.ProcessDirectory(ctx, args.InputDir, args.OutputDir, input)
	if err != nil {
		return fmt.Errorf("批量处理失败: %w", err)
	}

	for _, rep := range result.Reports {
		fmt.Fprintln(out, rep.Summary())
	}
	fmt.Fprintf(out, "成功 %d 个，失败 %d 个，应用规则 %d 条\n",
		result.ProcessedFiles, result.FailedFiles, result.Replacements)
	for _, e := range result.Errors {
		fmt.Fprintf(out, "  %v\n", e)
	}

	if args.ReportFile != "" {
		return writeReports(args.ReportFile, result.Reports...)
	}
	return nil
}

// writeReports 单个报告写为对象，多个报告写为数组
func writeReports(path string, reports ...*report.Report) error {
	var (
		data []byte
		err  error
	)
	if len(reports) == 1 {
		data, err = reports[0].JSON()
	} else {
		data, err = json.MarshalIndent(reports, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("序列化报告失败: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("写入报告失败: %w", err)
	}
	return nil
}

// extraction extract 命令的输出
type extraction struct {
	Corpus []string  `yaml:"corpus"`
	Fields yaml.Node `yaml:"fields"`
}

func extractCmd() *cobra.Command {
	var configFile, inputFile, outputFile string
	var verbose bool
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "输出文档的文本行和当前字段值",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if inputFile == "" {
				return fmt.Errorf("必须指定输入文件")
			}
			a, err := newApp(configFile, verbose, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			corpus, values, err := processor.ExtractDocument(cmd.Context(), a.opts, inputFile)
			if err != nil {
				return err
			}

			result := extraction{Corpus: corpus, Fields: yaml.Node{Kind: yaml.MappingNode}}
			for _, v := range values {
				result.Fields.Content = append(result.Fields.Content,
					&yaml.Node{Kind: yaml.ScalarNode, Value: v.Field},
					&yaml.Node{Kind: yaml.ScalarNode, Value: v.Value, Style: yaml.DoubleQuotedStyle})
			}
			data, err := yaml.Marshal(&result)
			if err != nil {
				return fmt.Errorf("序列化提取结果失败: %w", err)
			}

			if outputFile == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(outputFile, data, 0644); err != nil {
				return fmt.Errorf("写入提取结果失败: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "配置文件路径（JSON 或 YAML）")
	cmd.Flags().StringVar(&inputFile, "input", "", "输入文档路径")
	cmd.Flags().StringVar(&outputFile, "output", "", "输出文件路径，缺省输出到标准输出")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "详细输出")
	return cmd
}

func schemaCmd() *cobra.Command {
	var configFile, inputFile, outputFile, masterFile string
	var verbose bool
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "分析文档并保存映射模板",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if inputFile == "" || outputFile == "" {
				return fmt.Errorf("必须指定输入文件和输出文件")
			}
			a, err := newApp(configFile, verbose, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			var master *schema.Template
			if masterFile != "" {
				master, err = schema.LoadTemplateFile(masterFile)
				if err != nil {
					return fmt.Errorf("加载主模板失败: %w", err)
				}
			}

			template, diags, err := processor.BuildTemplate(cmd.Context(), a.opts, inputFile, master)
			if err != nil {
				return err
			}
			if err := schema.SaveTemplateFile(outputFile, template); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "映射模板已保存: %s (字段 %d 个)\n", outputFile, len(template.Mappings))
			for _, d := range diags {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", d)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "配置文件路径（JSON 或 YAML）")
	cmd.Flags().StringVar(&inputFile, "input", "", "输入文档路径")
	cmd.Flags().StringVar(&outputFile, "output", "", "映射模板输出路径")
	cmd.Flags().StringVar(&masterFile, "master", "", "主模板路径，其标签覆盖字段标签")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "详细输出")
	return cmd
}
