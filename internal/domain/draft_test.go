package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecklistDraft(t *testing.T) {
	catalog, err := DefaultCatalog()
	require.NoError(t, err)

	d, err := DraftFor(catalog, "AP1")
	require.NoError(t, err)

	tpl, _ := catalog.Template(CategoryStacker)
	require.Len(t, d.Entries, tpl.ItemCount())
	for _, e := range d.Entries {
		assert.Equal(t, ItemStatusOperational, e.Status)
	}

	c, disp := d.Preview()
	assert.Equal(t, ConditionOperational, c)
	assert.Equal(t, DispositionFit, disp)

	section := tpl.Sections[0].Name
	require.NoError(t, d.SetStatus(section, "Espejos", ItemStatusInoperative))
	require.NoError(t, d.SetObservation(section, "Espejos", "  roto  "))

	c, disp = d.Preview()
	assert.Equal(t, ConditionInoperative, c)
	assert.Equal(t, DispositionUnfit, disp)

	pending := d.PendingEvidence()
	require.Len(t, pending, 1)
	assert.Equal(t, "Espejos", pending[0].Item)
	assert.Error(t, d.Validate("sig1"))

	require.NoError(t, d.AttachPhoto(section, "Espejos", "p1.png"))
	assert.NoError(t, d.Validate("sig1"))
	assert.Empty(t, d.PendingEvidence())

	items := d.Items()
	assert.Equal(t, "roto", items[1].Observation)
	assert.Equal(t, "p1.png", items[1].PhotoRef)

	t.Run("unknown entry", func(t *testing.T) {
		err := d.SetStatus(section, "Alas", ItemStatusInoperative)
		assert.Equal(t, EINVALID, ErrorCode(err))
	})

	t.Run("unknown status", func(t *testing.T) {
		err := d.SetStatus(section, "Pintura", "BROKEN")
		assert.Equal(t, EINVALID, ErrorCode(err))
	})

	t.Run("back to operational drops the photo", func(t *testing.T) {
		require.NoError(t, d.SetStatus(section, "Espejos", ItemStatusOperational))
		assert.Empty(t, d.Items()[1].PhotoRef)
	})

	t.Run("reselect rebuilds wholesale", func(t *testing.T) {
		require.NoError(t, d.SetStatus(section, "Pintura", ItemStatusOperationalWithFault))
		d.MeterReading = 1200
		d.GeneralObservation = "nota"

		next, err := d.Reselect(catalog, "TP3")
		require.NoError(t, err)

		assert.Equal(t, "TP3", next.Equipment.Code)
		assert.Zero(t, next.MeterReading)
		assert.Empty(t, next.GeneralObservation)
		assert.Len(t, next.Entries, 12)
		for _, e := range next.Entries {
			assert.Equal(t, ItemStatusOperational, e.Status)
		}

		// The previous draft is untouched.
		assert.Equal(t, "AP1", d.Equipment.Code)
		assert.Equal(t, ItemStatusOperationalWithFault, d.Entries[0].Status)
	})

	t.Run("reselect unknown equipment", func(t *testing.T) {
		_, err := d.Reselect(catalog, "NOPE")
		assert.Equal(t, ENOTFOUND, ErrorCode(err))
	})
}
