package dataset

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestViewEmptyFile(t *testing.T) {
	for _, content := range []string{"", "\n\n  \n"} {
		var out bytes.Buffer
		outcome := View(&out, writeFile(t, content))
		require.Equal(t, OutcomeEmpty, outcome)
		require.Contains(t, out.String(), "Dataset is empty.")
	}
}

func TestViewMalformedFile(t *testing.T) {
	cases := map[string]string{
		"ragged rows": "a,b\n1,2\n3,4,5,6\n",
		"bare quote":  "a,b\n1,x\"y\"z\n",
		"binary":      "\xff\xfe\x00garbage\x00\x81",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			outcome := View(&out, writeFile(t, content))
			require.Equal(t, OutcomeMalformed, outcome)
			require.Contains(t, out.String(), "Error parsing CSV file. Check the file format.")
		})
	}
}

func TestViewRendersTable(t *testing.T) {
	var out bytes.Buffer
	outcome := View(&out, writeFile(t, "state,count\nKerala,10\nGoa,2\n"))
	require.Equal(t, OutcomeRendered, outcome)
	rendered := out.String()
	require.Contains(t, rendered, "state")
	require.Contains(t, rendered, "Kerala")
	require.Contains(t, rendered, "Goa")
	require.Contains(t, rendered, "[2 rows x 2 columns]")
}

func TestViewMissingFile(t *testing.T) {
	var out bytes.Buffer
	outcome := View(&out, filepath.Join(t.TempDir(), "missing.csv"))
	require.Equal(t, OutcomeUnreadable, outcome)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeFile(t, ""))
	require.ErrorIs(t, err, ErrEmptyData)

	_, err = Load(writeFile(t, "a,b\n1\n"))
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))

	table, err := Load(writeFile(t, "a,b\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, table.Header)
	require.Empty(t, table.Rows)
}
