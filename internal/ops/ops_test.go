package ops

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/godupes/internal/model"
)

func sampleResult() *model.Result {
	return &model.Result{
		Root:      "/data",
		Method:    model.MethodChecksum,
		Algorithm: "md5",
		Groups: []model.Group{
			{Size: 2048, Paths: []string{"/data/a", "/data/b", "/data/c"}, Links: 1},
			{Size: 5, Paths: []string{"/data/x.txt", "/data/y.txt"}},
		},
		Stats: model.Stats{FilesScanned: 9, Candidates: 6, Skipped: 1, Duration: 1500 * time.Millisecond},
	}
}

func TestWriteGroups_JSONUsesFourSpaceIndent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGroups(&buf, sampleResult(), FormatJSON))

	want := `[
    [
        "/data/a",
        "/data/b",
        "/data/c"
    ],
    [
        "/data/x.txt",
        "/data/y.txt"
    ]
]
`
	assert.Equal(t, want, buf.String())
}

func TestWriteGroups_EmptyResultIsEmptyArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGroups(&buf, &model.Result{}, FormatJSON))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteGroups_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGroups(&buf, sampleResult(), FormatYAML))

	out := buf.String()
	assert.Contains(t, out, "- /data/a")
	assert.Contains(t, out, "- /data/y.txt")
}

func TestWriteGroups_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGroups(&buf, sampleResult(), FormatText))

	out := buf.String()
	assert.Contains(t, out, "3 files, 2.0 KiB each, 2.0 KiB wasted (1 hard links)")
	assert.Contains(t, out, "    /data/b\n")
	assert.Contains(t, out, "2 files, 5 B each, 5 B wasted\n")
	assert.True(t, strings.HasSuffix(out, "2 groups, 3 duplicate files, 2.0 KiB reclaimable\n"), out)
}

func TestWriteGroups_UnknownFormat(t *testing.T) {
	assert.Error(t, WriteGroups(io.Discard, sampleResult(), "xml"))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("csv")
	assert.Error(t, err)
}

func TestExport_RoundTrip(t *testing.T) {
	for _, name := range []string{"report.json", "report.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, Export(sampleResult(), path, "", "1.2.3"))

			report, err := Import(path)
			require.NoError(t, err)

			_, err = uuid.Parse(report.ID)
			assert.NoError(t, err)
			assert.Equal(t, ToolName, report.Tool)
			assert.Equal(t, "1.2.3", report.Version)
			assert.False(t, report.Timestamp.IsZero())

			got := report.Result()
			want := sampleResult()
			assert.Equal(t, want.Root, got.Root)
			assert.Equal(t, want.Method, got.Method)
			assert.Equal(t, want.Algorithm, got.Algorithm)
			assert.Equal(t, want.Groups, got.Groups)
			assert.Equal(t, want.Stats, got.Stats)
		})
	}
}

func TestExport_DurationKeyMatchesEncoding(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"report.json", `"duration_ns": 1500000000`},
		{"report.yaml", "duration: 1.5s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.name)
			require.NoError(t, Export(sampleResult(), path, "", "1.2.3"))
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Contains(t, string(data), tt.want)
		})
	}
}

func TestExport_Stdout(t *testing.T) {
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	os.Stdout = w

	exportErr := Export(sampleResult(), "-", FormatJSON, "test-version")
	closeErr := w.Close()
	os.Stdout = oldStdout

	require.NoError(t, exportErr)
	require.NoError(t, closeErr)

	data, err := io.ReadAll(r)
	require.NoError(t, err)

	var report Report
	require.NoError(t, json.Unmarshal(data, &report), string(data))
	assert.Equal(t, "test-version", report.Version)
	assert.Len(t, report.Groups, 2)
}

func TestExport_OverwritesAtomically(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(target, []byte("old contents"), 0o644))

	require.NoError(t, Export(sampleResult(), target, FormatJSON, "test"))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "old contents")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestExport_NoPartialFileOnError(t *testing.T) {
	target := filepath.Join(t.TempDir(), "missing-dir", "out.json")
	require.Error(t, Export(sampleResult(), target, FormatJSON, "test"))
	_, err := os.Stat(target)
	assert.True(t, os.IsNotExist(err))
}

func TestExport_RejectsTextFormat(t *testing.T) {
	assert.Error(t, Export(sampleResult(), filepath.Join(t.TempDir(), "r.txt"), FormatText, "test"))
}

func TestImport_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"garbage json", "{not json"},
		{"garbage yaml", "groups: [unterminated"},
		{"other tool", `{"tool":"ncdu","groups":[]}`},
		{"singleton group", `{"tool":"godupes","groups":[{"size":1,"paths":["/a"]}]}`},
		{"too many links", `{"tool":"godupes","groups":[{"size":1,"paths":["/a","/b"],"hardlinks":2}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "in.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))
			_, err := Import(path)
			assert.Error(t, err)
		})
	}
}

func TestImport_MissingFile(t *testing.T) {
	_, err := Import(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
