package matcher

import (
	"regexp"
	"testing"

	"github.com/allanpk716/hwpx_replacer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func englishRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry([]domain.FieldDefinition{
		{Name: "Applicant", Label: "Applicant:", Pattern: regexp.MustCompile(`Applicant\s*:\s*([^\n]*)`)},
		{Name: "Address", Label: "Address:", Pattern: regexp.MustCompile(`Address\s*:\s*([^\n]*)`)},
		{Name: "Date", Pattern: regexp.MustCompile(`\d{4}-\d{2}-\d{2}`), Mode: domain.LastMatchInCorpus},
	})
	require.NoError(t, err)
	return r
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "ascii spaces", input: " 신 청 인 : ", expected: "신청인:"},
		{name: "tabs and breaks", input: "A\tB\nC", expected: "ABC"},
		{name: "full width colon", input: "주소지 \uff1a", expected: "주소지:"},
		{name: "ideographic space", input: "위의\u3000사실", expected: "위의사실"},
		{name: "no-break space", input: "a\u00a0b", expected: "ab"},
		{name: "decomposed hangul", input: "\u1112\u1161\u11ab", expected: "\ud55c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestContainsAndPrefix(t *testing.T) {
	assert.True(t, ContainsNormalized("위 의 사실을 증명 합니다.", "위의 사실을 증명합니다"))
	assert.False(t, ContainsNormalized("위의 사실", "증명합니다"))
	assert.False(t, ContainsNormalized("anything", "   "))

	assert.True(t, HasNormalizedPrefix("신 청 인 : 홍길동", "신청인 :"))
	assert.False(t, HasNormalizedPrefix("대리 신청인 : 홍길동", "신청인"))
	assert.False(t, HasNormalizedPrefix("신청인", ""))
}

func TestFindLoose(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		fragment string
		start    int
		end      int
		found    bool
	}{
		{name: "exact", text: "ab\tcd", fragment: "b\tc", start: 1, end: 4, found: true},
		{name: "extra spaces in text", text: "x A  :\tB y", fragment: "A:B", start: 2, end: 8, found: true},
		{name: "extra spaces in fragment", text: "A:B", fragment: "A : B", start: 0, end: 3, found: true},
		{name: "regex metacharacters", text: "cost (1+1)", fragment: "(1 + 1)", start: 5, end: 10, found: true},
		{name: "missing", text: "abc", fragment: "abd", found: false},
		{name: "blank fragment", text: "abc", fragment: " \t", found: false},
		{name: "empty fragment", text: "abc", fragment: "", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, ok := FindLoose(tt.text, tt.fragment)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.start, start)
				assert.Equal(t, tt.end, end)
			}
		})
	}
}

func TestReplaceFirstLoose(t *testing.T) {
	out, ok := ReplaceFirstLoose("주 소 지 :\t서울\t주소지:부산", "주소지:", "X")
	assert.True(t, ok)
	assert.Equal(t, "X\t서울\t주소지:부산", out)

	out, ok = ReplaceFirstLoose("abc", "zz", "X")
	assert.False(t, ok)
	assert.Equal(t, "abc", out)
}

func TestNewRegistry_Validation(t *testing.T) {
	_, err := NewRegistry([]domain.FieldDefinition{{Name: "신청인"}, {Name: "신 청 인"}})
	assert.Error(t, err)

	_, err = NewRegistry([]domain.FieldDefinition{{Name: "  "}})
	assert.Error(t, err)

	r, err := NewRegistry([]domain.FieldDefinition{{Name: "용도"}})
	require.NoError(t, err)
	def, ok := r.Lookup(" 용 도 ")
	require.True(t, ok)
	assert.Equal(t, "용도", def.Label, "标签缺省为字段名")
}

func TestRegistry_DefaultFields(t *testing.T) {
	r, err := NewRegistry(DefaultFieldDefinitions())
	require.NoError(t, err)
	assert.Len(t, r.Fields(), 7)

	date, ok := r.Lookup(DefaultDateField)
	require.True(t, ok)
	assert.Equal(t, domain.LastMatchInCorpus, date.Mode)

	value, ok := r.ExtractValue("주민등록번호", "주민등록번호 : 900101-1234567")
	assert.True(t, ok)
	assert.Equal(t, "900101-1234567", value)

	value, ok = r.ExtractValue("신청인", "신 청 인 \uff1a")
	assert.True(t, ok)
	assert.Equal(t, "", value)

	_, ok = r.ExtractValue("신청인", "주소지 : 서울")
	assert.False(t, ok)

	_, ok = r.ExtractValue("없는필드", "신청인 : 홍길동")
	assert.False(t, ok)
}

func TestRegistry_ContainmentGuard(t *testing.T) {
	r := englishRegistry(t)

	value, ok := r.ExtractValue("Applicant", "Applicant: John Doe Address: Seoul")
	require.True(t, ok)
	assert.Equal(t, "John Doe", value)

	value, ok = r.ExtractValue("Address", "Address: Seoul")
	require.True(t, ok)
	assert.Equal(t, "Seoul", value)

	assert.Equal(t, "a", r.ApplyContainmentGuard("Applicant", "a Date Address"), "截断到最早出现的标签")
}

func TestRegistry_ContainmentGuardLiteral(t *testing.T) {
	r, err := NewRegistry(DefaultFieldDefinitions())
	require.NoError(t, err)

	tests := []struct {
		name  string
		field string
		line  string
		want  string
	}{
		{
			name:  "label split by space is not a label",
			field: "용역내용",
			line:  "용역내용 : 사용 도구 구매",
			want:  "사용 도구 구매",
		},
		{
			name:  "label written literally truncates",
			field: "신청인",
			line:  "신청인 : 홍길동 주소지 : 서울",
			want:  "홍길동",
		},
		{
			name:  "other label spaced out is kept",
			field: "신청인",
			line:  "신청인 : 홍길동 주 소 지",
			want:  "홍길동 주 소 지",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, ok := r.ExtractValue(tt.field, tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.want, value)
		})
	}
}

func TestRegistry_ExtractAll(t *testing.T) {
	r := englishRegistry(t)
	corpus := []string{
		"Applicant: John Doe Address: Seoul",
		"Period: 2024-01-01 ~ 2024-02-01",
		"Address: Busan",
		"Signed 2024-03-05",
	}

	values := r.ExtractAll(corpus)
	assert.Equal(t, []domain.FieldValue{
		{Field: "Applicant", Value: "John Doe"},
		{Field: "Address", Value: "Seoul"},
		{Field: "Date", Value: "2024-03-05"},
	}, values)
}

func TestRegistry_ExtractAllKorean(t *testing.T) {
	r, err := NewRegistry(DefaultFieldDefinitions())
	require.NoError(t, err)

	corpus := []string{
		"재직증명서",
		"신 청 인 : 홍길동",
		"주 소 지 : 서울특별시 강남구",
		"2023년 5월 1일",
		"위의 사실을 증명합니다.",
		"2024년 1월 15일",
	}
	values := r.ExtractAll(corpus)

	got := make(map[string]string)
	for _, v := range values {
		got[v.Field] = v.Value
	}
	assert.Equal(t, "홍길동", got["신청인"])
	assert.Equal(t, "서울특별시 강남구", got["주소지"])
	assert.Equal(t, "2024년 1월 15일", got[DefaultDateField])
	assert.NotContains(t, got, "용도")
}
