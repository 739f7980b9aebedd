package output

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dshills/patchdiff/internal/configdiff"
	"github.com/dshills/patchdiff/internal/diff"
	"github.com/dshills/patchdiff/internal/redact"
)

//go:embed site/*.tmpl site/style.css
var siteFS embed.FS

var siteTemplates = template.Must(template.New("site").ParseFS(siteFS, "site/*.tmpl"))

// ConfigPage is the name of the configuration diff page.
const ConfigPage = "configuration.html"

const (
	indexPage  = "index.html"
	styleSheet = "style.css"
	filesDir   = "files"
)

// Event is a notable occurrence while generating a site. The caller decides
// how to log it.
type Event struct {
	Level   string
	Message string
	Path    string
}

// Site renders a Document as a directory of static HTML pages.
type Site struct {
	// SourceRoot is where source files referenced by the report are read from.
	// Empty disables source annotation.
	SourceRoot string
	// Redactor scrubs messages and source lines. Nil disables it.
	Redactor *redact.Redactor
}

// Generate writes the site into dir. An existing dir is purged first.
func (s *Site) Generate(dir string, doc *Document) ([]Event, error) {
	if dir == "" {
		return nil, errors.New("site output directory is empty")
	}
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("purging %s: %w", dir, err)
	}
	if err := os.MkdirAll(filepath.Join(dir, filesDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating site directory: %w", err)
	}

	doc = doc.Redacted(s.Redactor)
	var events []Event

	css, err := siteFS.ReadFile("site/" + styleSheet)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, styleSheet), css, 0o644); err != nil {
		return nil, fmt.Errorf("writing stylesheet: %w", err)
	}

	idx := indexData{
		page:    page{Title: "patchdiff report", CSS: styleSheet},
		Doc:     doc,
		Summary: doc.Report.Summary,
	}
	for i, fd := range orderedFiles(doc.Report) {
		href := filesDir + "/" + pageName(i, fd.Path)
		data, ev := s.filePage(doc, fd)
		events = append(events, ev...)
		if err := renderPage(filepath.Join(dir, filepath.FromSlash(href)), "file.html.tmpl", data); err != nil {
			return events, err
		}
		idx.Files = append(idx.Files, fileLink{
			Path:      fd.Path,
			Href:      href,
			Added:     fd.Added,
			Removed:   fd.Removed,
			Unchanged: fd.Unchanged,
		})
	}

	if cd := doc.Report.ConfigDiff; cd != nil {
		idx.HasConfig = true
		idx.Config = cd.Counts()
		if err := renderPage(filepath.Join(dir, ConfigPage), "configuration.html.tmpl", configPage(doc, cd)); err != nil {
			return events, err
		}
	}

	if err := renderPage(filepath.Join(dir, indexPage), "index.html.tmpl", idx); err != nil {
		return events, err
	}
	events = append(events, Event{
		Level:   "info",
		Message: fmt.Sprintf("site written with %d file pages", len(idx.Files)),
		Path:    filepath.Join(dir, indexPage),
	})
	return events, nil
}

type page struct {
	Title string
	CSS   string
}

type indexData struct {
	page
	Doc       *Document
	Summary   diff.Summary
	Files     []fileLink
	HasConfig bool
	Config    configdiff.Counts
}

type fileLink struct {
	Path                      string
	Href                      string
	Added, Removed, Unchanged int
}

type fileData struct {
	page
	Doc        *Document
	Path       string
	Entries    []entryView
	Source     []sourceLine
	SourceNote string
}

type entryView struct {
	Status    string
	Mark      string
	Position  string
	Severity  string
	Rule      string
	RuleShort string
	Message   string
}

type sourceLine struct {
	Number  int
	Text    string
	Status  string
	Entries []entryView
}

type configData struct {
	page
	Doc   *Document
	Rules []ruleView
}

type ruleView struct {
	ID     string
	Status string
	Attrs  []attrView
}

type attrView struct {
	Key, Base, Patch string
	Changed          bool
}

func (s *Site) filePage(doc *Document, fd *diff.FileDiff) (fileData, []Event) {
	data := fileData{
		page: page{Title: fd.Path, CSS: "../" + styleSheet},
		Doc:  doc,
		Path: fd.Path,
	}
	byLine := make(map[int][]entryView)
	for _, e := range fd.Entries {
		rec := e.Record()
		v := entryView{
			Status:    string(e.Status),
			Mark:      statusMark(e.Status),
			Position:  entryPosition(e),
			Severity:  string(rec.Severity),
			Rule:      rec.RuleID,
			RuleShort: shortRule(rec.RuleID),
			Message:   rec.Message,
		}
		data.Entries = append(data.Entries, v)
		if rec.Line > 0 {
			byLine[rec.Line] = append(byLine[rec.Line], v)
		}
	}

	if s.SourceRoot == "" {
		return data, nil
	}
	if s.Redactor.Withhold(fd.Path) {
		data.SourceNote = redact.Placeholder() + " (source withheld by path policy)"
		return data, []Event{{Level: "info", Message: "source withheld by path policy", Path: fd.Path}}
	}
	lines, err := readSource(s.sourcePath(fd.Path))
	if err != nil {
		data.SourceNote = "Source not available."
		return data, []Event{{Level: "warn", Message: fmt.Sprintf("cannot read source: %v", err), Path: fd.Path}}
	}
	var events []Event
	lineNums := make([]int, 0, len(byLine))
	for n := range byLine {
		lineNums = append(lineNums, n)
	}
	slices.Sort(lineNums)
	for _, n := range lineNums {
		if n > len(lines) {
			events = append(events, Event{
				Level:   "warn",
				Message: fmt.Sprintf("violation at line %d beyond end of source (%d lines)", n, len(lines)),
				Path:    fd.Path,
			})
		}
	}
	data.Source = make([]sourceLine, len(lines))
	for i, text := range lines {
		sl := sourceLine{Number: i + 1, Text: s.Redactor.Text(text), Entries: byLine[i+1]}
		if len(sl.Entries) > 0 {
			sl.Status = sl.Entries[0].Status
		}
		data.Source[i] = sl
	}
	return data, events
}

func (s *Site) sourcePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.SourceRoot, filepath.FromSlash(p))
}

func readSource(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	return lines, sc.Err()
}

func configPage(doc *Document, cd *configdiff.Result) configData {
	data := configData{
		page: page{Title: "Configuration changes", CSS: styleSheet},
		Doc:  doc,
	}
	for _, rd := range cd.Rules {
		if rd.Status == configdiff.StatusUnchanged {
			continue
		}
		rv := ruleView{ID: rd.RuleID, Status: string(rd.Status)}
		changed := make(map[string]bool, len(rd.Changed))
		for _, k := range rd.Changed {
			changed[k] = true
		}
		for _, k := range attrKeys(rd.Base, rd.Patch) {
			rv.Attrs = append(rv.Attrs, attrView{
				Key:     k,
				Base:    rd.Base[k],
				Patch:   rd.Patch[k],
				Changed: changed[k] || rd.Status != configdiff.StatusChanged,
			})
		}
		data.Rules = append(data.Rules, rv)
	}
	return data
}

func attrKeys(a, b configdiff.Attributes) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var keys []string
	for _, m := range []configdiff.Attributes{a, b} {
		for k := range m {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}
	slices.Sort(keys)
	return keys
}

// pageName builds a unique, filesystem-safe page name for a report path.
func pageName(i int, path string) string {
	var b strings.Builder
	for _, r := range path {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := strings.Trim(b.String(), "_.")
	if len(name) > 80 {
		name = name[len(name)-80:]
	}
	return fmt.Sprintf("%04d_%s.html", i+1, name)
}

func renderPage(path, name string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	if err := siteTemplates.ExecuteTemplate(f, name, data); err != nil {
		f.Close()
		return fmt.Errorf("rendering %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
