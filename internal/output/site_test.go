package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/patchdiff/internal/redact"
)

func writeSource(t *testing.T, root, rel string, lines int) {
	t.Helper()
	var b strings.Builder
	for i := 1; i <= lines; i++ {
		if i == 12 {
			b.WriteString(`String token = "abcdefabcdefabcdefabcdefabcdefab";` + "\n")
			continue
		}
		b.WriteString("// line " + strings.Repeat("x", i%5) + "\n")
	}
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func readPage(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestSite_Generate(t *testing.T) {
	doc := sampleDocument(t)
	root := t.TempDir()
	writeSource(t, root, "src/Foo.java", 20)

	out := filepath.Join(t.TempDir(), "report")
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "stale.txt"), []byte("old"), 0o644))

	site := &Site{SourceRoot: root, Redactor: redact.New(true, nil)}
	events, err := site.Generate(out, doc)
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(out, "stale.txt"), "existing output is purged")
	assert.FileExists(t, filepath.Join(out, "style.css"))
	assert.FileExists(t, filepath.Join(out, ConfigPage))

	index := readPage(t, filepath.Join(out, "index.html"))
	assert.Contains(t, index, `href="files/0001_src_Bar.java.html"`)
	assert.Contains(t, index, `href="files/0002_src_Foo.java.html"`)
	assert.Contains(t, index, `href="configuration.html"`)
	assert.Contains(t, index, `href="style.css"`)
	assert.Contains(t, index, doc.RunID)

	foo := readPage(t, filepath.Join(out, "files", "0002_src_Foo.java.html"))
	assert.Contains(t, foo, `href="../style.css"`)
	assert.Contains(t, foo, "LocalVariableNameCheck")
	assert.Contains(t, foo, "// line xx")
	assert.Contains(t, foo, "10:1&gt;12:1")
	assert.NotContains(t, foo, "abcdefabcdefabcdefabcdefabcdefab", "source lines are redacted")
	assert.Contains(t, foo, redact.Placeholder())

	bar := readPage(t, filepath.Join(out, "files", "0001_src_Bar.java.html"))
	assert.NotContains(t, bar, secretValue, "messages are redacted")
	assert.Contains(t, bar, "Source not available.")

	cfg := readPage(t, filepath.Join(out, ConfigPage))
	assert.Contains(t, cfg, "LocalVariableName")
	assert.Contains(t, cfg, "MagicNumber")
	assert.Contains(t, cfg, "120")

	var warned bool
	for _, ev := range events {
		if ev.Level == "warn" && ev.Path == "src/Bar.java" {
			warned = true
		}
	}
	assert.True(t, warned, "missing source is reported as an event: %+v", events)
	assert.Equal(t, "info", events[len(events)-1].Level)
}

func TestSite_WithheldSource(t *testing.T) {
	doc := sampleDocument(t)
	root := t.TempDir()
	writeSource(t, root, "src/Foo.java", 20)

	out := filepath.Join(t.TempDir(), "site")
	site := &Site{SourceRoot: root, Redactor: redact.New(false, []string{"**/Foo.java"})}
	events, err := site.Generate(out, doc)
	require.NoError(t, err)

	foo := readPage(t, filepath.Join(out, "files", "0002_src_Foo.java.html"))
	assert.NotContains(t, foo, "// line")
	assert.Contains(t, foo, "source withheld by path policy")
	assert.Contains(t, events, Event{Level: "info", Message: "source withheld by path policy", Path: "src/Foo.java"})
}

func TestSite_NoSourceRoot(t *testing.T) {
	doc := sampleDocument(t)
	doc.Report.ConfigDiff = nil
	out := filepath.Join(t.TempDir(), "site")

	events, err := (&Site{}).Generate(out, doc)
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.NoFileExists(t, filepath.Join(out, ConfigPage))

	index := readPage(t, filepath.Join(out, "index.html"))
	assert.NotContains(t, index, "configuration.html")
}

func TestSite_EmptyDir(t *testing.T) {
	_, err := (&Site{}).Generate("", sampleDocument(t))
	assert.Error(t, err)
}

func TestPageName(t *testing.T) {
	assert.Equal(t, "0003_src_main_Foo.java.html", pageName(2, "src/main/Foo.java"))
	assert.Equal(t, "0001_abs_path_A.java.html", pageName(0, "/abs/path/A.java"))
	long := pageName(0, strings.Repeat("d/", 60)+"X.java")
	assert.LessOrEqual(t, len(long), len("0001_.html")+80)
}

func TestSite_ShortSourceEventsOrdered(t *testing.T) {
	doc := sampleDocument(t)
	root := t.TempDir()
	writeSource(t, root, "src/Foo.java", 5)

	site := &Site{SourceRoot: root}
	var beyond []string
	for k := 0; k < 10; k++ {
		events, err := site.Generate(filepath.Join(t.TempDir(), "site"), doc)
		require.NoError(t, err)
		var got []string
		for _, ev := range events {
			if strings.Contains(ev.Message, "beyond end of source") {
				got = append(got, ev.Message)
			}
		}
		if beyond == nil {
			beyond = got
		}
		require.Equal(t, beyond, got)
	}
	assert.Equal(t, []string{
		"violation at line 11 beyond end of source (5 lines)",
		"violation at line 12 beyond end of source (5 lines)",
	}, beyond)
}
