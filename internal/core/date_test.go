package core

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-15")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Year() != 2024 || d.Month() != 3 || d.Day() != 15 {
		t.Errorf("got %s, want 2024-03-15", d)
	}

	for _, bad := range []string{"", "2024-3-15", "15/03/2024", "2024-13-01", "not-a-date"} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("ParseDate(%q) should fail", bad)
		}
	}
}

func TestDateOfIgnoresTimeOfDay(t *testing.T) {
	late := time.Date(2024, 3, 15, 23, 59, 59, 0, time.UTC)
	early := time.Date(2024, 3, 15, 0, 0, 1, 0, time.UTC)
	if !DateOf(late).Equal(DateOf(early).Time) {
		t.Error("same calendar day should yield equal dates")
	}
	if DateOf(late) != NewDate(2024, 3, 15) {
		t.Error("DateOf should truncate to midnight UTC")
	}
}

func TestDateInMonth(t *testing.T) {
	d := NewDate(2024, 3, 31)
	if !d.InMonth(2024, 3) {
		t.Error("last day of month should be in month")
	}
	if d.InMonth(2024, 4) {
		t.Error("march 31 is not in april")
	}
	if NewDate(2023, 3, 15).InMonth(2024, 3) {
		t.Error("same month of a different year should not match")
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2024, 3, 15)
	b, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(b) != `"2024-03-15"` {
		t.Errorf("MarshalJSON = %s", b)
	}

	var back Date
	if err := back.UnmarshalJSON(b); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if back != d {
		t.Errorf("round trip changed date: %s != %s", back, d)
	}
}

func TestDateJSONNull(t *testing.T) {
	var zero Date
	b, err := zero.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(b) != "null" {
		t.Errorf("zero date should encode as null, got %s", b)
	}

	var d Date
	if err := d.UnmarshalJSON([]byte("null")); err != nil {
		t.Fatalf("UnmarshalJSON(null): %v", err)
	}
	if !d.IsZero() {
		t.Error("null should decode to the zero date")
	}
}
