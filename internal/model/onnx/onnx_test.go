package onnx

import (
	"testing"

	ort "github.com/yalue/onnxruntime_go"
)

func TestInputWidth(t *testing.T) {
	tests := []struct {
		name     string
		inputs   []ort.InputOutputInfo
		declared int
		want     int
		wantErr  bool
	}{
		{
			name:   "static width",
			inputs: []ort.InputOutputInfo{{Name: "float_input", Dimensions: ort.NewShape(1, 8)}},
			want:   8,
		},
		{
			name:     "dynamic width uses declared",
			inputs:   []ort.InputOutputInfo{{Name: "float_input", Dimensions: ort.NewShape(-1, -1)}},
			declared: 8,
			want:     8,
		},
		{
			name:    "dynamic width without declared",
			inputs:  []ort.InputOutputInfo{{Name: "float_input", Dimensions: ort.NewShape(-1, -1)}},
			wantErr: true,
		},
		{
			name:     "declared mismatch",
			inputs:   []ort.InputOutputInfo{{Name: "float_input", Dimensions: ort.NewShape(1, 8)}},
			declared: 7,
			wantErr:  true,
		},
		{
			name:    "missing input",
			inputs:  []ort.InputOutputInfo{{Name: "x", Dimensions: ort.NewShape(1, 8)}},
			wantErr: true,
		},
		{
			name:    "wrong rank",
			inputs:  []ort.InputOutputInfo{{Name: "float_input", Dimensions: ort.NewShape(8)}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := inputWidth(tt.inputs, "float_input", tt.declared)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got width %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHasTensor(t *testing.T) {
	outputs := []ort.InputOutputInfo{{Name: "label"}, {Name: "probabilities"}}
	if !hasTensor(outputs, "label") {
		t.Error("expected label output to be found")
	}
	if hasTensor(outputs, "output_label") {
		t.Error("unexpected output_label match")
	}
}
