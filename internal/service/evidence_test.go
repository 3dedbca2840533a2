package service

import (
	"bytes"
	"context"
	"image"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/equipcheck/internal/domain"
)

func TestEvidenceService_StorePhoto(t *testing.T) {
	blobs := newLocalStorage(t)
	svc := NewEvidenceService(blobs, discardLogger())
	ctx := context.Background()

	ref, err := svc.StorePhoto(ctx, "AP1", bytes.NewReader(pngBytes(t, 3200, 1000)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "photos/AP1/"))
	assert.True(t, strings.HasSuffix(ref, ".jpg"))

	rc, info, err := svc.Open(ctx, ref)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "image/jpeg", info.ContentType)

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, PhotoMaxDimension, cfg.Width)
	assert.Equal(t, 500, cfg.Height)
}

func TestEvidenceService_StoreSignature(t *testing.T) {
	svc := NewEvidenceService(newLocalStorage(t), discardLogger())
	ctx := context.Background()

	ref, err := svc.StoreSignature(ctx, domain.RoleSupervisor, bytes.NewReader(pngBytes(t, 300, 120)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "signatures/supervisor/"))
	assert.True(t, strings.HasSuffix(ref, ".png"))

	_, err = svc.StoreSignature(ctx, domain.Role("admin"), bytes.NewReader(pngBytes(t, 10, 10)))
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestEvidenceService_Rejections(t *testing.T) {
	svc := NewEvidenceService(newLocalStorage(t), discardLogger())
	ctx := context.Background()

	tests := []struct {
		name string
		body []byte
		want string
	}{
		{name: "empty", body: nil, want: domain.EINVALID},
		{name: "text", body: []byte("not an image at all"), want: domain.EINVALID},
		{name: "pdf", body: []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"), want: domain.EINVALID},
		{name: "truncated png", body: pngBytes(t, 20, 20)[:40], want: domain.EINVALID},
		{name: "too large", body: bytes.Repeat([]byte{0}, MaxUploadBytes+1), want: domain.ETOOLARGE},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.StorePhoto(ctx, "AP1", bytes.NewReader(tt.body))
			require.Error(t, err)
			assert.Equal(t, tt.want, domain.ErrorCode(err))
		})
	}
}

func TestEvidenceService_Open(t *testing.T) {
	svc := NewEvidenceService(newLocalStorage(t), discardLogger())
	ctx := context.Background()

	tests := []struct {
		name string
		ref  string
	}{
		{name: "missing photo", ref: "photos/AP1/nope.jpg"},
		{name: "documents are not evidence", ref: "documents/checklists/1/CHECKLIST_AP1_2025-03-10.pdf"},
		{name: "traversal", ref: "photos/../../etc/passwd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Open(ctx, tt.ref)
			require.Error(t, err)
			assert.Contains(t, []string{domain.ENOTFOUND, domain.EINVALID}, domain.ErrorCode(err))
		})
	}
}
