package domain

import (
	"encoding/json"
	"math"
	"testing"
)

func TestToNumber(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  float64
	}{
		{name: "nil", value: nil, want: 0},
		{name: "float", value: 12.5, want: 12.5},
		{name: "int", value: 7, want: 7},
		{name: "numeric string", value: " 100 ", want: 100},
		{name: "garbage string", value: "abc", want: 0},
		{name: "json number", value: json.Number("42.25"), want: 42.25},
		{name: "nan", value: math.NaN(), want: 0},
		{name: "bool", value: true, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ToNumber(tc.value); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestToOptionalNumberKeepsAbsence(t *testing.T) {
	if got := ToOptionalNumber(nil); got != nil {
		t.Fatalf("expected nil, got %v", *got)
	}
	if got := ToOptionalNumber(""); got != nil {
		t.Fatalf("expected nil for empty string, got %v", *got)
	}
	got := ToOptionalNumber("0")
	if got == nil || *got != 0 {
		t.Fatalf("expected explicit zero to be kept")
	}
}
