package units

import "testing"

func TestIsValidTime(t *testing.T) {
	tests := []struct {
		unit string
		want bool
	}{
		{"s", true},
		{"ms", true},
		{"us", true},
		{"ns", false},
		{"", false},
		{"S", false},
	}
	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			if got := IsValidTime(tt.unit); got != tt.want {
				t.Errorf("IsValidTime(%q) = %v, want %v", tt.unit, got, tt.want)
			}
		})
	}
}

func TestIsValidInterval(t *testing.T) {
	if !IsValidInterval("samples") || !IsValidInterval("ms") {
		t.Error("expected samples and ms to be valid interval units")
	}
	if IsValidInterval("us") {
		t.Error("us is not an interval reporting unit")
	}
}

func TestValidUnitsStrings(t *testing.T) {
	if got, want := GetValidTimeUnitsString(), "s, ms, us"; got != want {
		t.Errorf("GetValidTimeUnitsString() = %q, want %q", got, want)
	}
	if got, want := GetValidIntervalUnitsString(), "samples, s, ms"; got != want {
		t.Errorf("GetValidIntervalUnitsString() = %q, want %q", got, want)
	}
}

func TestToSeconds(t *testing.T) {
	tests := []struct {
		v    float64
		unit string
		want float64
	}{
		{1.5, Seconds, 1.5},
		{1500, Milliseconds, 1.5},
		{1500000, Microseconds, 1.5},
		{2, "unknown", 2},
	}
	for _, tt := range tests {
		if got := ToSeconds(tt.v, tt.unit); got != tt.want {
			t.Errorf("ToSeconds(%v, %q) = %v, want %v", tt.v, tt.unit, got, tt.want)
		}
	}
}

func TestConvertInterval(t *testing.T) {
	tests := []struct {
		samples int
		target  string
		want    float64
	}{
		{125, Seconds, 1},
		{25, Milliseconds, 200},
		{40, Samples, 40},
		{40, "", 40},
	}
	for _, tt := range tests {
		if got := ConvertInterval(tt.samples, 125, tt.target); got != tt.want {
			t.Errorf("ConvertInterval(%d, 125, %q) = %v, want %v", tt.samples, tt.target, got, tt.want)
		}
	}
}
