package schema

import (
	"testing"

	"github.com/allanpk716/hwpx_replacer/internal/domain"
	"github.com/allanpk716/hwpx_replacer/internal/matcher"
	"github.com/allanpk716/hwpx_replacer/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultField(t *testing.T, name string) domain.FieldDefinition {
	t.Helper()
	registry, err := matcher.NewRegistry(matcher.DefaultFieldDefinitions())
	require.NoError(t, err)
	def, ok := registry.Lookup(name)
	require.True(t, ok)
	return def
}

func TestMapper_LabelPrefix(t *testing.T) {
	corpus := []string{
		"재직증명서",
		"대리 신청인 : 김철수",
		"신 청 인 : 홍길동",
		"신청인 : 중복",
		"주 소 지 ： 서울",
	}
	fields := []domain.FieldDefinition{defaultField(t, "신청인"), defaultField(t, "주소지")}

	mapping, diags := NewMapper(DefaultOptions()).Map(corpus, fields)
	assert.Empty(t, diags)
	assert.Equal(t, domain.LiteralLine("신 청 인 : 홍길동"), mapping["신청인"], "第一条前缀匹配的行")
	assert.Equal(t, domain.LiteralLine("주 소 지 ： 서울"), mapping["주소지"])
}

func TestMapper_DateAfterAnchor(t *testing.T) {
	corpus := []string{
		"용역기간 : 2024년 1월 1일 ~ 2024년 2월 1일",
		"2023년 3월 3일",
		"위 의 사실을 증명합니다.",
		"2024년 2월 1일 ∼ 2024년 3월 1일",
		"회사: Acme",
		"2024년 5월 1일",
		"2025년 5월 5일",
	}
	mapping, diags := NewMapper(DefaultOptions()).Map(corpus, []domain.FieldDefinition{defaultField(t, matcher.DefaultDateField)})

	assert.Empty(t, diags)
	assert.Equal(t, domain.LiteralLine("2024년 5월 1일"), mapping[matcher.DefaultDateField])
}

func TestMapper_DatePattern(t *testing.T) {
	corpus := []string{
		"신청인 : 홍길동",
		"위의 사실을 증명합니다.",
		"24년 3월 1일",
		"회사 : ABC",
	}
	def := defaultField(t, matcher.DefaultDateField)

	tests := []struct {
		name     string
		opts     func() Options
		expected domain.Location
	}{
		{
			name:     "two digit year matches default pattern",
			opts:     DefaultOptions,
			expected: domain.LiteralLine("24년 3월 1일"),
		},
		{
			name: "field pattern used without date pattern",
			opts: func() Options {
				opts := DefaultOptions()
				opts.DatePattern = nil
				return opts
			},
			expected: domain.Positional(DefaultAnchor, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapping, diags := NewMapper(tt.opts()).Map(corpus, []domain.FieldDefinition{def})
			assert.Empty(t, diags)
			assert.Equal(t, tt.expected, mapping[matcher.DefaultDateField])
		})
	}
}

func TestMapper_CertifiedAnchorResolvesDateLine(t *testing.T) {
	opts := DefaultOptions()
	opts.Anchor = "The above is certified as true"
	corpus := []string{
		"Applicant: John Doe",
		"The above is certified as true.",
		"Company: Acme",
		"2024년 1월 1일",
	}

	mapping, diags := NewMapper(opts).Map(corpus, []domain.FieldDefinition{defaultField(t, matcher.DefaultDateField)})
	assert.Empty(t, diags)
	assert.Equal(t, domain.LiteralLine("2024년 1월 1일"), mapping[matcher.DefaultDateField])
}

func TestMapper_LastDateWithoutAnchor(t *testing.T) {
	corpus := []string{
		"2023년 3월 3일",
		"본문",
		"2024년 4월 4일",
		"기간 2024년 1월 1일 ~ 2024년 2월 1일",
	}
	mapping, diags := NewMapper(DefaultOptions()).Map(corpus, []domain.FieldDefinition{defaultField(t, matcher.DefaultDateField)})

	assert.Empty(t, diags)
	assert.Equal(t, domain.LiteralLine("2024년 4월 4일"), mapping[matcher.DefaultDateField])
}

func TestMapper_PositionalOffset(t *testing.T) {
	anchor := "위의 사실을 증명합니다."
	tests := []struct {
		name     string
		corpus   []string
		expected domain.Location
	}{
		{
			name:     "default offset",
			corpus:   []string{"머리말", anchor, "날인", "서명란"},
			expected: domain.Positional(DefaultAnchor, 2),
		},
		{
			name:     "signature marker at offset two",
			corpus:   []string{anchor, "날인", "대표 홍길동"},
			expected: domain.Positional(DefaultAnchor, 1),
		},
		{
			name:     "offset two out of range",
			corpus:   []string{anchor, "회사: Acme"},
			expected: domain.Positional(DefaultAnchor, 1),
		},
		{
			name:     "anchor is last line",
			corpus:   []string{"머리말", anchor},
			expected: domain.Positional(DefaultAnchor, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapping, diags := NewMapper(DefaultOptions()).Map(tt.corpus, []domain.FieldDefinition{defaultField(t, matcher.DefaultDateField)})
			assert.Empty(t, diags)
			assert.Equal(t, tt.expected, mapping[matcher.DefaultDateField])
		})
	}
}

func TestMapper_DegradesToLabel(t *testing.T) {
	corpus := []string{"신청인 : 홍길동", "본문"}
	fields := []domain.FieldDefinition{
		defaultField(t, "신청인"),
		defaultField(t, "용도"),
		defaultField(t, matcher.DefaultDateField),
	}

	mapping, diags := NewMapper(DefaultOptions()).Map(corpus, fields)
	require.Len(t, mapping, 3)
	assert.Equal(t, domain.LiteralLine("용도"), mapping["용도"])
	assert.Equal(t, domain.LiteralLine(matcher.DefaultDateField), mapping[matcher.DefaultDateField])

	require.Len(t, diags, 2)
	for _, d := range diags {
		assert.Equal(t, report.SchemaUnresolved, d.Kind)
	}
	assert.Equal(t, "용도", diags[0].Field)
}

func TestApplyLabels(t *testing.T) {
	fields := []domain.FieldDefinition{defaultField(t, "신청인"), defaultField(t, "용도")}
	labels := map[string]string{
		"신 청 인": "신 청 인 :",
		"발급번호":  "발급번호 :",
		"비고":    "",
	}

	out := ApplyLabels(fields, labels)
	require.Len(t, out, 4)
	assert.Equal(t, "신청인", out[0].Name)
	assert.Equal(t, "신 청 인 :", out[0].Label)
	assert.NotNil(t, out[0].Pattern)
	assert.Equal(t, "용도", out[1].Label)
	assert.Equal(t, "발급번호", out[2].Name)
	assert.Equal(t, "발급번호 :", out[2].Label)
	assert.Nil(t, out[2].Pattern)
	assert.Equal(t, "비고", out[3].Label)
}
