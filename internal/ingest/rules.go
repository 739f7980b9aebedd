package ingest

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/dshills/patchdiff/internal/configdiff"
	"github.com/dshills/patchdiff/internal/violation"
)

// ParentAttribute records the enclosing module of a checkstyle module.
const ParentAttribute = "parent"

// Configs reads the base and patch rule configurations from disk.
type Configs struct {
	BasePath  string
	PatchPath string
}

// Present reports whether both configuration paths were supplied.
func (c Configs) Present() bool {
	return c.BasePath != "" && c.PatchPath != ""
}

// Rules implements RuleSource.
func (c Configs) Rules(ctx context.Context, run violation.Run) (configdiff.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch run {
	case violation.Base:
		return LoadRules(c.BasePath)
	case violation.Patch:
		return LoadRules(c.PatchPath)
	default:
		return nil, fmt.Errorf("unknown run %s", run)
	}
}

// DiffRules loads both configurations from src and compares them.
func DiffRules(ctx context.Context, src RuleSource) (*configdiff.Result, error) {
	base, err := src.Rules(ctx, violation.Base)
	if err != nil {
		return nil, fmt.Errorf("base configuration: %w", err)
	}
	patch, err := src.Rules(ctx, violation.Patch)
	if err != nil {
		return nil, fmt.Errorf("patch configuration: %w", err)
	}
	return configdiff.Diff(base, patch), nil
}

// LoadRules reads a rule configuration file. Files ending in .toml are read
// as TOML; anything else as checkstyle configuration XML.
func LoadRules(path string) (configdiff.Tree, error) {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return loadTOMLRules(path)
	}
	return loadCheckstyleRules(path)
}

type xmlModule struct {
	Name       string        `xml:"name,attr"`
	Properties []xmlProperty `xml:"property"`
	Messages   []xmlMessage  `xml:"message"`
	Modules    []xmlModule   `xml:"module"`
}

type xmlProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type xmlMessage struct {
	Key   string `xml:"key,attr"`
	Value string `xml:"value,attr"`
}

func loadCheckstyleRules(path string) (configdiff.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}
	var root xmlModule
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing configuration %s: %w", path, err)
	}
	if root.Name == "" {
		return nil, fmt.Errorf("parsing configuration %s: root module has no name", path)
	}
	tree := make(configdiff.Tree)
	flattenModule(tree, root, "")
	return tree, nil
}

// flattenModule adds m and its children to tree. A module is keyed by its
// "id" property when present, otherwise by name; repeated keys get a "#n"
// suffix in document order.
func flattenModule(tree configdiff.Tree, m xmlModule, parent string) {
	attrs := make(configdiff.Attributes, len(m.Properties)+len(m.Messages)+1)
	key := m.Name
	for _, p := range m.Properties {
		attrs[p.Name] = p.Value
		if p.Name == "id" && p.Value != "" {
			key = p.Value
		}
	}
	for _, msg := range m.Messages {
		attrs["message."+msg.Key] = msg.Value
	}
	if parent != "" {
		attrs[ParentAttribute] = parent
	}
	if _, dup := tree[key]; dup {
		for n := 2; ; n++ {
			k := fmt.Sprintf("%s#%d", key, n)
			if _, taken := tree[k]; !taken {
				key = k
				break
			}
		}
	}
	tree[key] = attrs
	for _, child := range m.Modules {
		flattenModule(tree, child, key)
	}
}

type tomlRules struct {
	Rules map[string]map[string]any `toml:"rules"`
}

func loadTOMLRules(path string) (configdiff.Tree, error) {
	var doc tomlRules
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("parsing configuration %s: %w", path, err)
	}
	tree := make(configdiff.Tree, len(doc.Rules))
	for id, table := range doc.Rules {
		attrs := make(configdiff.Attributes, len(table))
		for k, v := range table {
			attrs[k] = tomlValueString(v)
		}
		tree[id] = attrs
	}
	return tree, nil
}

func tomlValueString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = tomlValueString(e)
		}
		return strings.Join(parts, ",")
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + tomlValueString(x[k])
		}
		return strings.Join(parts, ";")
	default:
		return fmt.Sprint(x)
	}
}
