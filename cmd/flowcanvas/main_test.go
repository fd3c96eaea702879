package main

import (
	"testing"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInputs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pairs    []string
		expected map[string]any
		wantErr  bool
	}{
		{name: "none", expected: map[string]any{}},
		{
			name:  "strings and json",
			pairs: []string{"name=Ada", "age=36", "admin=true", `tags=["a","b"]`, "note=a=b"},
			expected: map[string]any{
				"name":  "Ada",
				"age":   float64(36),
				"admin": true,
				"tags":  []any{"a", "b"},
				"note":  "a=b",
			},
		},
		{name: "missing equals", pairs: []string{"name"}, wantErr: true},
		{name: "empty key", pairs: []string{"=1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			inputs, err := parseInputs(tt.pairs)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, inputs)
		})
	}
}

func TestFit(t *testing.T) {
	t.Parallel()

	w := models.NewWorkflow("Fit", "")
	w.Nodes = []*models.Node{
		{ID: "node_1", Type: models.NodeTypeStart, Name: "Start", Position: models.Position{X: 500, Y: 300}},
		{ID: "node_2", Type: models.NodeTypeEnd, Name: "End", Position: models.Position{X: 900, Y: 300}},
	}

	scene := fit(w, 0, 0)

	// Two 200x80 boxes 400 apart, plus padding on each side.
	assert.Equal(t, 600+2*fitPadding, scene.Width)
	assert.Equal(t, 80+2*fitPadding, scene.Height)
	assert.Equal(t, "translate(-460,-260) scale(1)", scene.Transform)

	fixed := fit(w, 1024, 768)
	assert.Equal(t, 1024, fixed.Width)
	assert.Equal(t, 768, fixed.Height)
}
