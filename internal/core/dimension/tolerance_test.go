package dimension

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGeneralTolerance(t *testing.T) {
	tests := []struct {
		value float64
		want  float64
		ok    bool
	}{
		{5.0, 0.1, true},
		{45.0, 0.3, true},
		{6.0, 0.2, true},
		{0.1, 0.1, true},
		{30, 0.3, true},
		{314.99, 0.5, true},
		{1199, 1.2, true},
		{1200, 0, false},
		{0.05, 0, false},
	}
	for _, tt := range tests {
		got, ok := GeneralTolerance(tt.value)
		if got != tt.want || ok != tt.ok {
			t.Errorf("GeneralTolerance(%v): got %v,%v want %v,%v", tt.value, got, ok, tt.want, tt.ok)
		}
	}
}

func TestResolve(t *testing.T) {
	linear25 := Classification{Value: 25}
	inline14 := Classification{Value: 14, Inline: true, InlineValue: 0.05}

	tests := []struct {
		name      string
		c         Classification
		neighbors []string
		want      Resolution
	}{
		{
			name:      "negative neighbours",
			c:         linear25,
			neighbors: []string{"-0.1", "-0.3"},
			want:      Resolution{Display: "-0.3 to -0.1", Upper: LimitOf(24.9), Lower: LimitOf(24.7), Source: SourceNegative},
		},
		{
			name:      "negatives win over inline",
			c:         inline14,
			neighbors: []string{"A", "-1"},
			want:      Resolution{Display: "-1.0 to -1.0", Upper: LimitOf(13), Lower: LimitOf(13), Source: SourceNegative},
		},
		{
			name:      "plus-minus neighbour",
			c:         inline14,
			neighbors: []string{"±0.1", "±0.2"},
			want:      Resolution{Display: "±0.10", Upper: LimitOf(14.1), Lower: LimitOf(13.9), Source: SourceNeighbor},
		},
		{
			name: "inline",
			c:    inline14,
			want: Resolution{Display: "±0.05", Upper: LimitOf(14.05), Lower: LimitOf(13.95), Source: SourceInline},
		},
		{
			name:      "general table",
			c:         Classification{Value: 5},
			neighbors: []string{"Steel"},
			want:      Resolution{Display: "±0.10", Upper: LimitOf(5.1), Lower: LimitOf(4.9), Source: SourceGeneral},
		},
		{
			name: "nothing applies",
			c:    Classification{Value: 1500},
			want: Resolution{Display: "-", Source: SourceNone},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if d := cmp.Diff(tt.want, Resolve(tt.c, tt.neighbors)); d != "" {
				t.Errorf("Resolve (-want +got):\n%s", d)
			}
		})
	}
}

func TestLimitString(t *testing.T) {
	tests := []struct {
		l    Limit
		want string
	}{
		{Limit{}, "-"},
		{LimitOf(14.05), "14.05"},
		{LimitOf(0.1 + 0.2), "0.3"},
		{LimitOf(13), "13"},
		{LimitOf(-2.5), "-2.5"},
	}
	for _, tt := range tests {
		if got := tt.l.String(); got != tt.want {
			t.Errorf("%+v: got %q, want %q", tt.l, got, tt.want)
		}
	}
}
