package storage

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/equipcheck/internal/domain"
)

func newLocal(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(LocalConfig{BasePath: t.TempDir(), BaseURL: "http://localhost:8080/api/evidence/"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

func TestLocalStorage_RoundTrip(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()
	key := PhotoKey("AP1")

	require.NoError(t, s.Put(ctx, key, strings.NewReader("jpeg-bytes"), PutOptions{ContentType: "image/jpeg"}))

	ok, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	rc, info, err := s.Get(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
	assert.Equal(t, int64(10), info.Size)
	assert.Equal(t, "image/jpeg", info.ContentType)

	url, err := s.URL(ctx, key, 0)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api/evidence/"+key, url)

	require.NoError(t, s.Delete(ctx, key))
	require.NoError(t, s.Delete(ctx, key), "delete is idempotent")

	_, _, err = s.Get(ctx, key)
	assert.True(t, IsNotFound(err))
}

func TestLocalStorage_PutOptions(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	t.Run("existing key without overwrite", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "documents/a.pdf", strings.NewReader("1"), PutOptions{}))
		err := s.Put(ctx, "documents/a.pdf", strings.NewReader("2"), PutOptions{})
		assert.ErrorIs(t, err, ErrKeyExists)
		assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(ToDomain(err, "test")))
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "documents/a.pdf", strings.NewReader("22"), PutOptions{Overwrite: true}))
		rc, _, err := s.Get(ctx, "documents/a.pdf")
		require.NoError(t, err)
		defer rc.Close()
		data, _ := io.ReadAll(rc)
		assert.Equal(t, "22", string(data))
	})

	t.Run("too large leaves nothing behind", func(t *testing.T) {
		err := s.Put(ctx, "photos/big.jpg", bytes.NewReader(make([]byte, 11)), PutOptions{MaxSize: 10})
		assert.True(t, IsTooLarge(err))
		assert.Equal(t, domain.ETOOLARGE, domain.ErrorCode(ToDomain(err, "test")))

		ok, err := s.Exists(ctx, "photos/big.jpg")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestValidateKey(t *testing.T) {
	valid := []string{"photos/AP1/x.jpg", "documents/checklists/1/CHECKLIST_AP1_2025-03-10.pdf"}
	for _, k := range valid {
		assert.NoError(t, ValidateKey(k), k)
	}

	invalid := []string{"", "/etc/passwd", "../secret", "photos/../../x", "photos//x", "photos/./x", `photos\x`}
	for _, k := range invalid {
		assert.ErrorIs(t, ValidateKey(k), ErrInvalidKey, k)
	}

	s := newLocal(t)
	_, _, err := s.Get(context.Background(), "../outside")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestKeys(t *testing.T) {
	photo := PhotoKey("AP 1")
	assert.True(t, strings.HasPrefix(photo, "photos/AP_1/"))
	assert.True(t, strings.HasSuffix(photo, ".jpg"))
	assert.NotEqual(t, photo, PhotoKey("AP 1"))
	assert.NoError(t, ValidateKey(photo))

	sig := SignatureKey("supervisor")
	assert.True(t, strings.HasPrefix(sig, "signatures/supervisor/"))
	assert.True(t, strings.HasSuffix(sig, ".png"))
	assert.True(t, IsEvidenceKey(sig))

	assert.Equal(t, "documents/checklists/7/CHECKLIST_AP1_2025-03-10.pdf", ChecklistKey(7, "CHECKLIST_AP1_2025-03-10.pdf"))
	assert.Equal(t, "documents/summaries/INFORME_GERENCIA_2025-03-01_2025-03-31.pdf", SummaryKey("INFORME_GERENCIA_2025-03-01_2025-03-31.pdf"))
	assert.False(t, IsEvidenceKey("documents/summaries/x.pdf"))
}

func TestToDomain(t *testing.T) {
	assert.NoError(t, ToDomain(nil, "op"))
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(ToDomain(&StorageError{Op: "Get", Err: ErrNotFound}, "op")))
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(ToDomain(&StorageError{Op: "Get", Err: ErrInvalidKey}, "op")))
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(ToDomain(io.ErrUnexpectedEOF, "op")))
}

func TestR2Storage_URL(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("presigned", func(t *testing.T) {
		s, err := NewR2Storage(R2Config{
			AccountID: "acct", AccessKeyID: "key", SecretAccessKey: "secret", BucketName: "evidence",
		}, logger)
		require.NoError(t, err)

		url, err := s.URL(context.Background(), "photos/AP1/a.jpg", 0)
		require.NoError(t, err)
		assert.Contains(t, url, "acct.r2.cloudflarestorage.com")
		assert.Contains(t, url, "photos/AP1/a.jpg")
		assert.Contains(t, url, "X-Amz-Signature=")
	})

	t.Run("public", func(t *testing.T) {
		s, err := NewR2Storage(R2Config{
			AccountID: "acct", BucketName: "evidence", PublicURL: "https://files.example.com/",
		}, logger)
		require.NoError(t, err)

		url, err := s.URL(context.Background(), "photos/AP1/a.jpg", 0)
		require.NoError(t, err)
		assert.Equal(t, "https://files.example.com/photos/AP1/a.jpg", url)
	})

	t.Run("bucket required", func(t *testing.T) {
		_, err := NewR2Storage(R2Config{AccountID: "acct"}, logger)
		assert.Error(t, err)
	})

	t.Run("invalid key", func(t *testing.T) {
		s, err := NewR2Storage(R2Config{AccountID: "acct", BucketName: "evidence"}, logger)
		require.NoError(t, err)
		_, err = s.URL(context.Background(), "../x", 0)
		assert.ErrorIs(t, err, ErrInvalidKey)
	})
}
