package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	assert.Equal(t, 9, c.Size())

	ap1, ok := c.Lookup("AP1")
	require.True(t, ok)
	assert.Equal(t, CategoryStacker, ap1.Category)
	assert.Equal(t, "Apilador 1", ap1.Name)

	_, ok = c.Lookup("XX9")
	assert.False(t, ok)

	for _, cat := range Categories {
		tpl, ok := c.Template(cat)
		require.True(t, ok, "category %s", cat)
		assert.NotZero(t, tpl.ItemCount())
	}

	stacker, _ := c.Template(CategoryStacker)
	require.Len(t, stacker.Sections, 5)
	assert.Equal(t, "INSPECCIÓN VISUAL Y SENSORIAL", stacker.Sections[0].Name)
	assert.Equal(t, []string{"Pintura", "Espejos"}, stacker.Sections[0].Items[:2])

	pallet, _ := c.Template(CategoryPalletTruck)
	require.Len(t, pallet.Sections, 1)
	assert.Len(t, pallet.Sections[0].Items, 12)

	// Equipment keeps catalog order.
	codes := make([]string, 0, c.Size())
	for _, e := range c.Equipment() {
		codes = append(codes, e.Code)
	}
	assert.Equal(t, []string{"AP1", "AP3", "AP4", "TP3", "TP4", "ME7", "ME8", "ME11", "MC5"}, codes)
}

const templatesYAML = `
templates:
  - category: stacker
    sections: [{name: A, items: [a1]}]
  - category: pallet-truck
    sections: [{name: A, items: [a1]}]
  - category: electric-lift
    sections: [{name: A, items: [a1]}]
  - category: combustion-lift
    sections: [{name: A, items: [a1]}]
`

func TestLoadCatalog_Validation(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "valid",
			doc:     templatesYAML + "equipment:\n  - {category: stacker, code: S1, name: S}\n",
			wantErr: "",
		},
		{
			name:    "duplicate code",
			doc:     templatesYAML + "equipment:\n  - {category: stacker, code: S1}\n  - {category: stacker, code: S1}\n",
			wantErr: "declared twice",
		},
		{
			name:    "unknown equipment category",
			doc:     templatesYAML + "equipment:\n  - {category: crane, code: C1}\n",
			wantErr: "unknown category",
		},
		{
			name:    "missing template",
			doc:     "templates:\n  - category: stacker\n    sections: [{name: A, items: [a1]}]\n",
			wantErr: "has no template",
		},
		{
			name:    "duplicate template",
			doc:     templatesYAML + "  - category: stacker\n    sections: [{name: B, items: [b1]}]\n",
			wantErr: "more than one template",
		},
		{
			name:    "empty section",
			doc:     strings.Replace(templatesYAML, "{name: A, items: [a1]}", "{name: A, items: []}", 1),
			wantErr: "empty section",
		},
		{
			name:    "blank code",
			doc:     templatesYAML + "equipment:\n  - {category: stacker, code: ' '}\n",
			wantErr: "code is required",
		},
		{
			name:    "not yaml",
			doc:     "equipment: [",
			wantErr: "not valid YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := LoadCatalog(strings.NewReader(tt.doc))
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, 1, c.Size())
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, EINVALID, ErrorCode(err))
		})
	}
}
