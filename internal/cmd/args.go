package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// AppName 程序名称
	AppName = "hwpx-replacer"
	// AppVersion 程序版本
	AppVersion = "1.0.0"
)

// DefaultOutputSuffix 未配置时输出文件名使用的后缀
const DefaultOutputSuffix = "_processed"

// CommandLineArgs 命令行参数结构
type CommandLineArgs struct {
	ConfigFile   string
	InputFile    string
	OutputFile   string
	InputDir     string
	OutputDir    string
	ModifyFile   string
	Data         string
	TemplateFile string
	ReportFile   string
	Verbose      bool
}

// ValidateArgs 验证 fill 命令的参数，缺省的输出路径按 suffix 自动生成
func ValidateArgs(args *CommandLineArgs, suffix string) error {
	if suffix == "" {
		suffix = DefaultOutputSuffix
	}

	// 检查是单文件处理还是批量处理
	hasSingleFile := args.InputFile != "" || args.OutputFile != ""
	hasBatchMode := args.InputDir != "" || args.OutputDir != ""

	if !hasSingleFile && !hasBatchMode {
		return fmt.Errorf("必须指定输入文件或输入目录")
	}

	if hasSingleFile && hasBatchMode {
		return fmt.Errorf("不能同时指定单文件和批量处理模式")
	}

	if hasSingleFile {
		if args.InputFile == "" {
			return fmt.Errorf("单文件模式下必须指定输入文件")
		}
		if args.OutputFile == "" {
			args.OutputFile = GenerateOutputFileName(args.InputFile, suffix)
		}
	}

	if hasBatchMode {
		if args.InputDir == "" {
			return fmt.Errorf("批量模式下必须指定输入目录")
		}
		if args.OutputDir == "" {
			args.OutputDir = strings.TrimRight(args.InputDir, `/\`) + suffix
		}
	}

	switch {
	case args.ModifyFile == "" && args.Data == "":
		return fmt.Errorf("必须通过 --modify 或 --data 提供替换内容")
	case args.ModifyFile != "" && args.Data != "":
		return fmt.Errorf("--modify 与 --data 不能同时使用")
	}

	return nil
}

// GenerateOutputFileName 生成输出文件名
func GenerateOutputFileName(inputFile, suffix string) string {
	if suffix == "" {
		suffix = DefaultOutputSuffix
	}
	ext := filepath.Ext(inputFile)
	base := strings.TrimSuffix(inputFile, ext)
	return base + suffix + ext
}
