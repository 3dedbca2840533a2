package handler

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func upload(t *testing.T, app *testApp, path, user string, fields map[string]string, file []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile("file", "upload.png")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Test-User", user)
	rec := httptest.NewRecorder()
	app.mux.ServeHTTP(rec, req)
	return rec
}

func TestEvidenceHandler_Photo(t *testing.T) {
	app := newTestApp(t)

	rec := upload(t, app, "/api/evidence/photos", "ana", map[string]string{"equipment": "AP1"}, pngBytes(t, 40, 30))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out struct {
		Ref string `json:"ref"`
	}
	decodeBody(t, rec, &out)
	assert.True(t, strings.HasPrefix(out.Ref, "photos/AP1/"))
	assert.True(t, strings.HasSuffix(out.Ref, ".jpg"))

	rec = app.do(t, http.MethodGet, "/api/evidence/"+out.Ref, "ana", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.NotZero(t, rec.Body.Len())
}

func TestEvidenceHandler_Signature(t *testing.T) {
	app := newTestApp(t)

	rec := upload(t, app, "/api/evidence/signatures", "miguel", nil, pngBytes(t, 300, 100))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out struct {
		Ref string `json:"ref"`
	}
	decodeBody(t, rec, &out)
	assert.True(t, strings.HasPrefix(out.Ref, "signatures/supervisor/"))
	assert.True(t, strings.HasSuffix(out.Ref, ".png"))
}

func TestEvidenceHandler_Rejections(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name     string
		path     string
		fields   map[string]string
		file     []byte
		wantCode int
	}{
		{"no file", "/api/evidence/photos", map[string]string{"equipment": "AP1"}, nil, http.StatusBadRequest},
		{"no equipment", "/api/evidence/photos", nil, pngBytes(t, 10, 10), http.StatusBadRequest},
		{"not an image", "/api/evidence/photos", map[string]string{"equipment": "AP1"}, []byte("%PDF-1.4 not an image"), http.StatusBadRequest},
		{"empty signature", "/api/evidence/signatures", nil, []byte{}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := upload(t, app, tt.path, "ana", tt.fields, tt.file)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}

	t.Run("documents are not served as evidence", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/api/evidence/documents/checklists/1/x.pdf", "ana", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown key", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/api/evidence/photos/AP1/missing.jpg", "ana", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
