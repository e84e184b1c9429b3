package tables

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fxdesk/internal/core"
)

func TestBuiltInSchemasRegistered(t *testing.T) {
	schemas, err := Load(bytes.NewReader(schemasYAML))
	require.NoError(t, err)
	require.Len(t, schemas, 8)

	for _, s := range schemas {
		registered, ok := core.Get(s.Type())
		require.True(t, ok, s.Type())
		assert.Equal(t, s.Fields(), registered.Fields())
	}

	mtm, _ := core.Get("mtm")
	assert.Len(t, mtm.RequiredFields(), 11)
	assert.Equal(t, core.DateISO, mtm.DateLayout())

	po, _ := core.Get("po")
	assert.Equal(t, core.DateDDMMYYYY, po.DateLayout())
	assert.False(t, po.AllowsExtraColumns())

	creditor, _ := core.Get("creditor")
	assert.True(t, creditor.AllowsExtraColumns())
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "minimal schema",
			yaml: `
- type: swap
  label: Swaps
  group: Derivatives
  fields:
    - {name: trade_id, required: true}
    - name: notional
      rules: [{type: numeric}]
`,
		},
		{
			name: "unknown key rejected",
			yaml: `
- type: swap
  fields:
    - {name: trade_id, requried: true}
`,
			wantErr: "requried",
		},
		{
			name: "duplicate type",
			yaml: `
- {type: swap, fields: [{name: a}]}
- {type: SWAP, fields: [{name: b}]}
`,
			wantErr: "defined twice",
		},
		{
			name: "invalid rule",
			yaml: `
- type: swap
  fields:
    - name: pair
      rules: [{type: pattern}]
`,
			wantErr: "pattern rule without regex",
		},
		{
			name:    "not a list",
			yaml:    "type: swap\n",
			wantErr: "decode schemas",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schemas, err := Load(strings.NewReader(tt.yaml))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, schemas, 1)
			assert.Equal(t, "swap", schemas[0].Type())
			assert.Equal(t, []string{"trade_id"}, schemas[0].RequiredFields())
		})
	}
}
