package iojson

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLine(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLine(&buf, map[string]int{"remaining": 3}))
	require.NoError(t, WriteLine(&buf, map[string]int{"remaining": 2}))

	assert.Equal(t, "{\"remaining\":3}\n{\"remaining\":2}\n", buf.String())
}

func TestWriteIndent(t *testing.T) {
	var out, errOut bytes.Buffer
	require.NoError(t, WriteIndent(&out, &errOut, map[string]bool{"valid": true}))

	assert.Equal(t, "{\n  \"valid\": true\n}\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestWriteIndent_MarshalError(t *testing.T) {
	var out, errOut bytes.Buffer
	require.NoError(t, WriteIndent(&out, &errOut, func() {}))

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), `"message":"cannot encode func()"`)
	assert.Contains(t, errOut.String(), `"json_error"`)
}

type item struct {
	Name string `json:"name"`
}

func TestFileReader_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"Tea"}]`), 0o644))

	fr := &FileReader[[]item]{fileFlagValue: path}
	got, err := fr.Read()
	require.NoError(t, err)
	assert.Equal(t, []item{{Name: "Tea"}}, got)
}

func TestFileReader_StdinRejectsUnknownFields(t *testing.T) {
	fr := &FileReader[[]item]{stdin: strings.NewReader(`[{"name":"Tea","color":"green"}]`)}
	_, err := fr.Read()
	assert.ErrorContains(t, err, "decode JSON")
}
