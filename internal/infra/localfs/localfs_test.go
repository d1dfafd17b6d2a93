package localfs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	root := t.TempDir()
	s, err := New(filepath.Join(root, "uploads"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "documents/1/a-report.pdf", strings.NewReader("content"), 7, "application/pdf"))

	rc, err := s.Get(ctx, "documents/1/a-report.pdf")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "content", string(data))

	entries, err := os.ReadDir(filepath.Join(root, "uploads", "documents", "1"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	require.NoError(t, s.Delete(ctx, "documents/1/a-report.pdf"))
	_, err = s.Get(ctx, "documents/1/a-report.pdf")
	var nf *domain.ErrNotFound
	assert.ErrorAs(t, err, &nf)

	assert.NoError(t, s.Delete(ctx, "documents/1/a-report.pdf"))
}

func TestStore_RejectsEscapingKeys(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"../secret", "/etc/passwd", "a/../../b", ""} {
		err := s.Put(context.Background(), key, strings.NewReader("x"), 1, "")
		var ve *domain.ErrValidation
		assert.ErrorAs(t, err, &ve, key)
	}
}
