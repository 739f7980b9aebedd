package ingest

import (
	"net/url"
	"path/filepath"
	"strings"
)

// pathNormalizer rewrites report paths into the logical form used as file
// keys: relative to root when the file lies under it, the cleaned path
// otherwise.
type pathNormalizer struct {
	root string
}

func newPathNormalizer(root string) (pathNormalizer, error) {
	if root == "" {
		return pathNormalizer{}, nil
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return pathNormalizer{}, err
	}
	return pathNormalizer{root: abs}, nil
}

func (n pathNormalizer) normalize(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "file://") {
		if u, err := url.Parse(p); err == nil {
			p = u.Path
		}
	}
	clean := filepath.Clean(filepath.FromSlash(p))
	if n.root != "" && filepath.IsAbs(clean) {
		if rel, err := filepath.Rel(n.root, clean); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(clean)
}
