package model

import "testing"

func TestPeriod_Key(t *testing.T) {
	monthly := Period{Year: 2024, Month: 6}
	if monthly.Key() != 202406 {
		t.Errorf("Key() = %d, want 202406", monthly.Key())
	}

	yearly := Period{Year: 2024}
	if yearly.Key() != 202400 {
		t.Errorf("年単位のKey() = %d, want 202400", yearly.Key())
	}
	if !yearly.Before(monthly) {
		t.Error("同一年では年単位書庫が月単位より前に並ぶべき")
	}
}

func TestPeriod_Before_不明期間(t *testing.T) {
	unknown := Period{}
	known := Period{Year: 2024, Month: 1}

	if unknown.Before(known) {
		t.Error("不明期間はBeforeでtrueを返すべきではない")
	}
	if known.Before(unknown) {
		t.Error("不明期間との比較はfalseを返すべき")
	}
}

func TestPeriod_String(t *testing.T) {
	tests := []struct {
		period Period
		want   string
	}{
		{Period{Year: 2021, Month: 1}, "202101"},
		{Period{Year: 2021}, "2021"},
		{Period{}, "unknown"},
	}
	for _, tt := range tests {
		if got := tt.period.String(); got != tt.want {
			t.Errorf("String() = %s, want %s", got, tt.want)
		}
	}
}
