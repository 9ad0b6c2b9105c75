package tags

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", []string{}},
		{"commas", "policy, Housing,transport", []string{"policy", "housing", "transport"}},
		{"whitespace", "a  b\tc", []string{"a", "b", "c"}},
		{"hash prefix", "#Open-Data #open-data", []string{"open-data"}},
		{"duplicates keep first order", "b, a, b", []string{"b", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_NeverNil(t *testing.T) {
	if got := Normalize(nil); got == nil {
		t.Fatal("Normalize(nil) returned nil")
	}
}

func TestJoinRoundTrip(t *testing.T) {
	in := []string{"x", "y-z"}
	if got := Parse(Join(in)); !reflect.DeepEqual(got, in) {
		t.Errorf("Parse(Join) = %v, want %v", got, in)
	}
}
