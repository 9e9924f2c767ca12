package chatbot

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestPreviewTruncatesOnRuneBoundary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.csv")
	content := "name\n" + strings.Repeat("é", 100)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	d, err := NewDatasetContext(context.Background(), 10)
	require.NoError(t, err)
	preview, err := d.Preview(context.Background(), path)
	require.NoError(t, err)
	require.LessOrEqual(t, len(preview), 10)
	require.True(t, utf8.ValidString(preview))
	require.True(t, strings.HasPrefix(preview, "name\n"))
}

func TestPreviewEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	d, err := NewDatasetContext(context.Background(), 0)
	require.NoError(t, err)
	_, err = d.Preview(context.Background(), path)
	require.Error(t, err)
}

func TestTruncateUTF8(t *testing.T) {
	require.Equal(t, "abc", truncateUTF8("abc", 10))
	require.Equal(t, "a", truncateUTF8("aé", 2))
	require.Equal(t, "aé", truncateUTF8("aéb", 3))
}
