package cmd

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/allanpk716/hwpx_replacer/internal/domain"
	"github.com/allanpk716/hwpx_replacer/internal/report"
	"github.com/allanpk716/hwpx_replacer/internal/schema"
	"github.com/allanpk716/hwpx_replacer/pkg/hwpx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var certificate = []string{
	"재직증명서",
	"신 청 인 : 홍길동",
	"용 도 : 제출용",
	"위의 사실을 증명합니다.",
	"2023년 1월 1일",
}

// createHwpx 创建只有一个节的 hwpx 文件
func createHwpx(t *testing.T, path string, lines ...string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))

	body := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<hs:sec xmlns:hs="http://www.hancom.co.kr/hwpml/2011/section" xmlns:hp="http://www.hancom.co.kr/hwpml/2011/paragraph">`
	for _, line := range lines {
		body += `<hp:p><hp:run><hp:t>` + line + `</hp:t></hp:run></hp:p>`
	}
	body += `</hs:sec>`

	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	zw := zip.NewWriter(file)
	for _, e := range []struct{ name, data string }{
		{"mimetype", "application/hwp+zip"},
		{"Contents/section0.xml", body},
	} {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.data))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func sectionTexts(t *testing.T, path string) []string {
	t.Helper()
	reader, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer reader.Close()

	for _, f := range reader.File {
		if f.Name != "Contents/section0.xml" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)

		doc, err := hwpx.Parse(f.Name, data, hwpx.HWPX)
		require.NoError(t, err)
		var texts []string
		for _, p := range doc.Paragraphs() {
			texts = append(texts, p.Text())
		}
		return texts
	}
	t.Fatal("缺少节文件")
	return nil
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&logs)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestFillCommand_Single(t *testing.T) {
	dir := t.TempDir()
	input := createHwpx(t, filepath.Join(dir, "cert.hwpx"), certificate...)
	reportPath := filepath.Join(dir, "report.json")

	out, err := execute(t, "fill", "--input", input,
		"--data", `{"신청인": "김철수", "용도": "은행 제출용"}`,
		"--report", reportPath)
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	texts := sectionTexts(t, filepath.Join(dir, "cert_processed.hwpx"))
	assert.Equal(t, "신 청 인 : 김철수", texts[1])
	assert.Equal(t, "용 도 : 은행 제출용", texts[2])

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var rep report.Report
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Equal(t, 2, rep.RulesApplied)
}

func TestFillCommand_ModifyFileAndTemplate(t *testing.T) {
	dir := t.TempDir()
	input := createHwpx(t, filepath.Join(dir, "cert.hwpx"), certificate...)
	output := filepath.Join(dir, "out", "cert.hwpx")

	modify := filepath.Join(dir, "modify.yaml")
	require.NoError(t, os.WriteFile(modify, []byte("replacements:\n  - field: 용도\n    value: 보관용\n"), 0644))

	templatePath := filepath.Join(dir, "cert.schema.json")
	require.NoError(t, schema.SaveTemplateFile(templatePath, &schema.Template{
		Mappings: domain.SchemaMapping{"용도": domain.LiteralLine("용 도 : 제출용")},
	}))

	_, err := execute(t, "fill", "--input", input, "--output", output,
		"--modify", modify, "--template", templatePath)
	require.NoError(t, err)
	assert.Equal(t, "용 도 : 보관용", sectionTexts(t, output)[2])
}

func TestFillCommand_Batch(t *testing.T) {
	dir := t.TempDir()
	inputDir := filepath.Join(dir, "certs")
	createHwpx(t, filepath.Join(inputDir, "a.hwpx"), certificate...)
	createHwpx(t, filepath.Join(inputDir, "sub", "b.hwpx"), certificate...)

	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`project_name: batch
schema_cache:
  type: sqlite
  path: `+filepath.ToSlash(filepath.Join(dir, "cache.db"))+`
processing_config:
  max_concurrent_files: 2
  output_suffix: _filled
`), 0644))

	out, err := execute(t, "fill", "--config", configPath, "--input-dir", inputDir,
		"--data", `{"신청인": "김철수"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "成功 2 个，失败 0 个")

	for _, name := range []string{"a.hwpx", filepath.Join("sub", "b.hwpx")} {
		texts := sectionTexts(t, filepath.Join(dir, "certs_filled", name))
		assert.Equal(t, "신 청 인 : 김철수", texts[1], name)
	}
	assert.FileExists(t, filepath.Join(dir, "cache.db"))
}

func TestFillCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	input := createHwpx(t, filepath.Join(dir, "cert.hwpx"), certificate...)

	tests := []struct {
		name string
		args []string
	}{
		{name: "no input", args: []string{"fill", "--data", `{"a": "b"}`}},
		{name: "no data", args: []string{"fill", "--input", input}},
		{name: "empty data", args: []string{"fill", "--input", input, "--data", `{}`}},
		{name: "bad data", args: []string{"fill", "--input", input, "--data", `"text"`}},
		{name: "missing config", args: []string{"fill", "--config", filepath.Join(dir, "none.yaml"), "--input", input, "--data", `{"a": "b"}`}},
		{name: "missing template", args: []string{"fill", "--input", input, "--data", `{"a": "b"}`, "--template", filepath.Join(dir, "none.json")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestExtractCommand(t *testing.T) {
	dir := t.TempDir()
	input := createHwpx(t, filepath.Join(dir, "cert.hwpx"), certificate...)

	out, err := execute(t, "extract", "--input", input)
	require.NoError(t, err)

	var result struct {
		Corpus []string          `yaml:"corpus"`
		Fields map[string]string `yaml:"fields"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &result))
	assert.Equal(t, certificate, result.Corpus)
	assert.Equal(t, "홍길동", result.Fields["신청인"])
	assert.Equal(t, "2023년 1월 1일", result.Fields["작성날짜"])
	assert.True(t, strings.Index(out, "신청인") < strings.Index(out, "작성날짜"), "字段按注册顺序输出")

	_, err = execute(t, "extract")
	assert.Error(t, err)
}

func TestSchemaCommand(t *testing.T) {
	dir := t.TempDir()
	input := createHwpx(t, filepath.Join(dir, "cert.hwpx"), certificate...)
	output := filepath.Join(dir, "cert.schema.json")

	out, err := execute(t, "schema", "--input", input, "--output", output)
	require.NoError(t, err)
	assert.Contains(t, out, output)
	assert.Contains(t, out, string(report.SchemaUnresolved))

	template, err := schema.LoadTemplateFile(output)
	require.NoError(t, err)
	assert.Equal(t, domain.LiteralLine("신 청 인 : 홍길동"), template.Mappings["신청인"])
	assert.Equal(t, certificate, template.AllText)

	_, err = execute(t, "schema", "--input", input)
	assert.Error(t, err)
}
