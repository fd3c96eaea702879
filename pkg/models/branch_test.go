package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBranch(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		label    string
		expected Branch
		wantErr  bool
	}{
		{label: "default", expected: Default},
		{label: "true", expected: True},
		{label: "false", expected: False},
		{label: "else", expected: Else},
		{label: "case1", expected: Case(1)},
		{label: "case12", expected: Case(12)},
		{label: "case0", wantErr: true},
		{label: "case", wantErr: true},
		{label: "casex", wantErr: true},
		{label: "TRUE", wantErr: true},
		{label: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.label, func(t *testing.T) {
			t.Parallel()

			branch, err := ParseBranch(tc.label)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidBranch)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, branch)
			assert.Equal(t, tc.label, branch.String())
		})
	}
}

func TestBranch_AsJSONMapKey(t *testing.T) {
	t.Parallel()

	next := map[Branch]string{
		Case(2): "node_3",
		Else:    "node_4",
		Case(1): "node_2",
	}

	data, err := json.Marshal(next)
	require.NoError(t, err)
	assert.JSONEq(t, `{"case1":"node_2","case2":"node_3","else":"node_4"}`, string(data))

	var decoded map[Branch]string

	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, next, decoded)

	err = json.Unmarshal([]byte(`{"maybe":"node_1"}`), &decoded)
	assert.ErrorIs(t, err, ErrInvalidBranch)
}

func TestBranch_MarshalInvalidCase(t *testing.T) {
	t.Parallel()

	_, err := Case(0).MarshalText()
	assert.ErrorIs(t, err, ErrInvalidBranch)
}
