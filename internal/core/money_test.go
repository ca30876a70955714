package core

import (
	"errors"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "integer", input: "12", want: 1200},
		{name: "two decimals dot", input: "12.34", want: 1234},
		{name: "two decimals comma", input: "12,34", want: 1234},
		{name: "one decimal", input: "12.3", want: 1230},
		{name: "zero", input: "0", want: 0},
		{name: "zero with decimals", input: "0.00", want: 0},
		{name: "leading dot", input: ".50", want: 50},
		{name: "rounds half up", input: "1.005", want: 101},
		{name: "rounds down below half", input: "1.004", want: 100},
		{name: "truncates extra digits after rounding", input: "2.999", want: 300},
		{name: "whitespace trimmed", input: "  7.25  ", want: 725},
		{name: "empty", input: "", wantErr: true},
		{name: "only spaces", input: "   ", wantErr: true},
		{name: "negative", input: "-1.00", wantErr: true},
		{name: "explicit plus", input: "+1.00", wantErr: true},
		{name: "letters", input: "abc", wantErr: true},
		{name: "mixed", input: "12a.34", wantErr: true},
		{name: "two separators", input: "1.2.3", wantErr: true},
		{name: "overflow", input: "92233720368547758081", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDecimalToCents(%q) = %d, want error", tt.input, got)
				}
				if !errors.Is(err, ErrInvalidArgument) {
					t.Errorf("ParseDecimalToCents(%q) error = %v, want ErrInvalidArgument in chain", tt.input, err)
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

func TestMoneyString(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{100, "1.00"},
		{1234, "12.34"},
		{-5, "-0.05"},
		{-1234, "-12.34"},
	}

	for _, tt := range tests {
		if got := (Money{Cents: tt.cents}).String(); got != tt.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Cents: 1500}
	b := Money{Cents: 2000}

	if got := a.Add(b); got.Cents != 3500 {
		t.Errorf("Add = %d, want 3500", got.Cents)
	}
	if got := a.Sub(b); got.Cents != -500 {
		t.Errorf("Sub = %d, want -500", got.Cents)
	}
	if !a.Sub(b).IsNegative() {
		t.Error("Sub below zero should be negative")
	}
	if !(Money{}).IsZero() {
		t.Error("zero value should report IsZero")
	}
}
