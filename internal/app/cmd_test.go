package app

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Command
	}{
		{"引数なし", nil, CommandCrawl},
		{"crawl", []string{"crawl"}, CommandCrawl},
		{"healthcheck", []string{"healthcheck"}, CommandHealthcheck},
		{"未知のコマンド", []string{"unknown"}, CommandCrawl},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseCommand(tt.args); got != tt.want {
				t.Errorf("ParseCommand(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}
