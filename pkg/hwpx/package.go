package hwpx

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// Package 文档容器（ZIP 包），负责读取和写回文档部件
type Package interface {
	// DocumentParts 按顺序返回需要处理的文档部件名称
	DocumentParts() []string
	ReadPart(name string) ([]byte, error)
	WritePart(name string, data []byte) error
	Save(outputPath string) error
	Close() error
}

// OpenPackage 按方言打开文档容器
func OpenPackage(path string, dialect Dialect) (Package, error) {
	if dialect.Name == OOXML.Name {
		return openDocxPackage(path)
	}
	return openZipPackage(path, dialect)
}

var sectionPattern = regexp.MustCompile(`^Contents/section(\d+)\.xml$`)

func isSectionPart(name string) bool {
	return sectionPattern.MatchString(name)
}

// storedEntries 重新打包时不压缩的条目，mimetype 必须位于首位
var storedEntries = map[string]bool{
	"mimetype":             true,
	"version.xml":          true,
	"Preview/PrvImage.png": true,
}

// packageModTime 重新打包时所有条目使用的固定时间戳
var packageModTime = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

type zipEntry struct {
	name string
	data []byte
}

// zipPackage 基于 archive/zip 的 HWPX 容器，内容一次性读入内存
type zipPackage struct {
	dialect Dialect
	entries []*zipEntry
	index   map[string]*zipEntry
}

func openZipPackage(path string, dialect Dialect) (*zipPackage, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("打开文档包失败: %w", err)
	}
	defer reader.Close()

	pkg := &zipPackage{dialect: dialect, index: make(map[string]*zipEntry)}
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("打开文件 %s 失败: %w", file.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("读取文件 %s 失败: %w", file.Name, err)
		}
		entry := &zipEntry{name: file.Name, data: data}
		pkg.entries = append(pkg.entries, entry)
		pkg.index[file.Name] = entry
	}
	return pkg, nil
}

func (zp *zipPackage) DocumentParts() []string {
	var parts []string
	for _, e := range zp.entries {
		if zp.dialect.Parts != nil && zp.dialect.Parts(e.name) {
			parts = append(parts, e.name)
		}
	}
	sort.SliceStable(parts, func(i, j int) bool {
		return sectionIndex(parts[i]) < sectionIndex(parts[j])
	})
	return parts
}

func sectionIndex(name string) int {
	m := sectionPattern.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func (zp *zipPackage) ReadPart(name string) ([]byte, error) {
	entry, ok := zp.index[name]
	if !ok {
		return nil, fmt.Errorf("文档包中不存在 %s", name)
	}
	return entry.data, nil
}

func (zp *zipPackage) WritePart(name string, data []byte) error {
	entry, ok := zp.index[name]
	if !ok {
		return fmt.Errorf("文档包中不存在 %s", name)
	}
	entry.data = data
	return nil
}

// Save 按 HWPX 打包规则写出：mimetype 首位且不压缩，其余按原顺序
func (zp *zipPackage) Save(outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	outputFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("创建输出文件失败: %w", err)
	}
	defer outputFile.Close()

	zipWriter := zip.NewWriter(outputFile)

	ordered := make([]*zipEntry, 0, len(zp.entries))
	if mt, ok := zp.index["mimetype"]; ok {
		ordered = append(ordered, mt)
	}
	for _, e := range zp.entries {
		if e.name != "mimetype" {
			ordered = append(ordered, e)
		}
	}

	for _, e := range ordered {
		header := &zip.FileHeader{Name: e.name, Method: zip.Deflate, Modified: packageModTime}
		if storedEntries[e.name] {
			header.Method = zip.Store
		}
		writer, err := zipWriter.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("创建ZIP文件头失败: %w", err)
		}
		if _, err := writer.Write(e.data); err != nil {
			return fmt.Errorf("写入文件内容失败: %w", err)
		}
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("关闭ZIP写入器失败: %w", err)
	}
	return outputFile.Close()
}

func (zp *zipPackage) Close() error {
	return nil
}
