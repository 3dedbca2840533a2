package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogHandler(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/equipment", "ana", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Equipment []equipmentJSON `json:"equipment"`
	}
	decodeBody(t, rec, &list)
	require.Len(t, list.Equipment, 9)
	assert.Equal(t, "AP1", list.Equipment[0].Code)

	rec = app.do(t, http.MethodGet, "/api/equipment/TP3/draft", "ana", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var draft draftJSON
	decodeBody(t, rec, &draft)
	assert.Equal(t, "TP3", draft.Equipment.Code)
	assert.Len(t, draft.Items, 12)
	assert.Equal(t, "OPERATIONAL", draft.Condition)
	for _, item := range draft.Items {
		assert.Equal(t, "OPERATIONAL", item.Status)
	}

	rec = app.do(t, http.MethodGet, "/api/equipment/XX9/draft", "ana", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/equipment", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
