package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"whole number", "12", 1200, false},
		{"dot separator", "12.34", 1234, false},
		{"comma separator", "12,34", 1234, false},
		{"single decimal", "12.3", 1230, false},
		{"rounds half up", "12.345", 1235, false},
		{"rounds down below half", "12.344", 1234, false},
		{"leading whitespace", "  9.99", 999, false},
		{"bare fraction", ".50", 50, false},
		{"zero rejected", "0", 0, true},
		{"zero decimal rejected", "0.00", 0, true},
		{"negative rejected", "-5", 0, true},
		{"explicit plus rejected", "+5", 0, true},
		{"empty rejected", "", 0, true},
		{"letters rejected", "abc", 0, true},
		{"mixed rejected", "12.3a", 0, true},
		{"two separators rejected", "1.2.3", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDecimalToCents(%q) = %d, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimalToCents(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 100}).Validate(); err != nil {
		t.Errorf("positive amount should validate: %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Error("zero amount should be rejected")
	}
	if err := (Money{Cents: -100}).Validate(); err == nil {
		t.Error("negative amount should be rejected")
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{1234, "$12.34"},
		{100, "$1.00"},
		{5, "$0.05"},
		{-1234, "-$12.34"},
	}

	for _, tt := range tests {
		if got := (Money{Cents: tt.cents}).String(); got != tt.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}
