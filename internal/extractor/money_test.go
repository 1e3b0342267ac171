package extractor

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		input string
		want  string // 空文字列はnil期待
	}{
		{"6840000", "6840000"},
		{"6.840.000", "6840000"},
		{"1.234,56", "1234.56"},
		{"1,234.56", "1234.56"},
		{"1234.56", "1234.56"},
		{"1234,56", "1234.56"},
		{"123,456", "123456"},
		{"1.5", "1.5"},
		{"3690000.00", "3690000"},
		{"6.840.000,00 €", "6840000"},
		{"1 234,56 EUR", "1234.56"},
		{"0", "0"},
		{"", ""},
		{"no es un número", ""},
		{"-100", ""},
		{"€", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseDecimal(tt.input)
			if tt.want == "" {
				if got != nil {
					t.Fatalf("ParseDecimal(%q) = %s, want nil", tt.input, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParseDecimal(%q) = nil, want %s", tt.input, tt.want)
			}
			want, _ := decimal.NewFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("ParseDecimal(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDecimal_ゼロ埋めをしない(t *testing.T) {
	// 解析不能な金額はゼロではなくnilになる
	if got := ParseDecimal("consultar pliegos"); got != nil {
		t.Errorf("解析不能な金額はnilであるべき, got %s", got)
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		input string
		want  string // "true", "false", "nil"
	}{
		{"true", "true"},
		{"sí", "true"},
		{"si", "true"},
		{"1", "true"},
		{"false", "false"},
		{"no", "false"},
		{"0", "false"},
		{"", "nil"},
		{"  ", "nil"},
	}

	for _, tt := range tests {
		got := ParseBool(tt.input)
		switch tt.want {
		case "nil":
			if got != nil {
				t.Errorf("ParseBool(%q) = %v, want nil", tt.input, *got)
			}
		case "true":
			if got == nil || !*got {
				t.Errorf("ParseBool(%q) = %v, want true", tt.input, got)
			}
		case "false":
			if got == nil || *got {
				t.Errorf("ParseBool(%q) = %v, want false", tt.input, got)
			}
		}
	}
}

func TestParseInt(t *testing.T) {
	if got := ParseInt("5"); got == nil || *got != 5 {
		t.Errorf("ParseInt(5) = %v, want 5", got)
	}
	if got := ParseInt(""); got != nil {
		t.Errorf("ParseInt(空) = %v, want nil", got)
	}
	if got := ParseInt("abc"); got != nil {
		t.Errorf("ParseInt(abc) = %v, want nil", got)
	}
}
