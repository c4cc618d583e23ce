package money

import (
	"strings"
	"testing"
	"time"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{100, "$100.00"},
		{1234.555, "$1,234.56"},
		{0.004, "$0.00"},
		{104.00000000000001, "$104.00"},
	}
	for _, tc := range tests {
		if got := Format(tc.in); got != tc.want {
			t.Fatalf("Format(%v) = %q want %q", tc.in, got, tc.want)
		}
	}
	if got := Format(-20); !strings.HasPrefix(got, "-") || !strings.Contains(got, "20.00") {
		t.Fatalf("negative format = %q", got)
	}
}

func TestSigned(t *testing.T) {
	if got := Signed(10); got != "+$10.00" {
		t.Fatalf("Signed(10) = %q", got)
	}
	if got := Signed(0); got != "$0.00" {
		t.Fatalf("Signed(0) = %q", got)
	}
	if got := Signed(-1.5); !strings.HasPrefix(got, "-") {
		t.Fatalf("Signed(-1.5) = %q", got)
	}
}

func TestRoundAndCents(t *testing.T) {
	if got := Cents(0.125); got != 13 {
		t.Fatalf("Cents(0.125) = %d", got)
	}
	if got := Round(52.504); got != 52.5 {
		t.Fatalf("Round(52.504) = %v", got)
	}
}

func TestPercentAndCount(t *testing.T) {
	if got := Percent(0.05); got != "5.0%" {
		t.Fatalf("Percent = %q", got)
	}
	if got := Count(1234567); got != "1,234,567" {
		t.Fatalf("Count = %q", got)
	}
}

func TestAgo(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	if got := Ago(now.Add(-3*time.Minute), now); got != "3 minutes ago" {
		t.Fatalf("Ago = %q", got)
	}
}
