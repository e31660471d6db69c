package orders

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

var numberPattern = regexp.MustCompile(`^GG-\d{14}-\d{5}$`)

func TestNewOrderNumberFormat(t *testing.T) {
	now := time.Date(2026, 3, 15, 9, 30, 45, 0, time.UTC)
	number := NewOrderNumber(now)

	if !numberPattern.MatchString(number) {
		t.Fatalf("order number %q does not match GG-<14 digits>-<5 digits>", number)
	}
	if !strings.HasPrefix(number, "GG-20260315093045-") {
		t.Errorf("expected timestamp segment for fixed time, got %q", number)
	}
}

func TestNewOrderNumberUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC-6", -6*60*60)
	local := time.Date(2026, 3, 15, 9, 30, 45, 0, loc)

	number := NewOrderNumber(local)
	if !strings.HasPrefix(number, "GG-20260315153045-") {
		t.Errorf("expected UTC timestamp segment, got %q", number)
	}
}

func TestNewOrderNumberUniqueAcrossSeconds(t *testing.T) {
	start := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)
	seen := make(map[string]bool)

	for i := 0; i < 500; i++ {
		number := NewOrderNumber(start.Add(time.Duration(i) * time.Second))
		if seen[number] {
			t.Fatalf("duplicate order number %q", number)
		}
		seen[number] = true
	}
}

func TestNewOrderNumberUniqueWithinSecond(t *testing.T) {
	// A small same-second batch: with a 5-digit random suffix the chance of
	// any collision among 8 draws is under 0.03%.
	now := time.Now()
	seen := make(map[string]bool)

	for i := 0; i < 8; i++ {
		number := NewOrderNumber(now)
		if seen[number] {
			t.Fatalf("duplicate order number %q within one second", number)
		}
		seen[number] = true
	}
}
