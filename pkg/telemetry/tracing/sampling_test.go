package tracing

import (
	"strings"
	"testing"
)

func TestNewSampler(t *testing.T) {
	tests := []struct {
		name     string
		ratio    float64
		wantDesc string
	}{
		{name: "full ratio always samples", ratio: 1.0, wantDesc: "AlwaysOnSampler"},
		{name: "above one clamps to always", ratio: 2.5, wantDesc: "AlwaysOnSampler"},
		{name: "zero never samples", ratio: 0, wantDesc: "AlwaysOffSampler"},
		{name: "negative clamps to never", ratio: -1, wantDesc: "AlwaysOffSampler"},
		{name: "partial ratio is parent based", ratio: 0.25, wantDesc: "ParentBased"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampler := newSampler(tt.ratio)
			if desc := sampler.Description(); !strings.Contains(desc, tt.wantDesc) {
				t.Errorf("Description() = %q, want substring %q", desc, tt.wantDesc)
			}
		})
	}
}
