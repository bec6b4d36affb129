package domain

import "testing"

func TestAsVector(t *testing.T) {
	testCases := []struct {
		name  string
		input interface{}
		want  []float32
	}{
		{
			name:  "float32 slice",
			input: []float32{0.1, 0.2, 0.3},
			want:  []float32{0.1, 0.2, 0.3},
		},
		{
			name:  "float64 slice",
			input: []float64{1, 2},
			want:  []float32{1, 2},
		},
		{
			name:  "int32 slice",
			input: []int32{1, -2},
			want:  []float32{1, -2},
		},
		{
			name:  "int64 slice",
			input: []int64{7},
			want:  []float32{7},
		},
		{
			name:  "interface slice of mixed numerics",
			input: []interface{}{float32(0.5), float64(1.5), int64(2)},
			want:  []float32{0.5, 1.5, 2},
		},
		{
			name:  "boxed float32 slice",
			input: []interface{}{[]float32{0.25, 0.75}},
			want:  []float32{0.25, 0.75},
		},
		{
			name:  "boxed interface slice",
			input: []interface{}{[]interface{}{float64(3), float64(4)}},
			want:  []float32{3, 4},
		},
		{
			name:  "empty interface slice",
			input: []interface{}{},
			want:  []float32{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := AsVector(tc.input)
			if err != nil {
				t.Fatalf("AsVector(%v) returned error: %v", tc.input, err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("length mismatch: got %d, want %d", len(got), len(tc.want))
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("element %d: got %v, want %v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestAsVectorRejectsUnknownRepresentations(t *testing.T) {
	testCases := []struct {
		name  string
		input interface{}
	}{
		{name: "nil", input: nil},
		{name: "string", input: "0.1,0.2"},
		{name: "map", input: map[string]float32{"a": 1}},
		{name: "string elements", input: []interface{}{"0.1"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := AsVector(tc.input); err == nil {
				t.Errorf("AsVector(%v) expected error, got nil", tc.input)
			}
		})
	}
}
