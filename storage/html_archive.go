package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var schemePrefixRe = regexp.MustCompile(`^https?://(www\.)?`)

// HTMLArchive writes the raw markup of fetched pages to disk, one timestamped
// file per fetch, so extraction regressions can be diagnosed against the
// exact page that produced them.
type HTMLArchive struct {
	dir string
}

// NewHTMLArchive creates the archive directory if needed.
func NewHTMLArchive(dir string) (*HTMLArchive, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("archive: create dir %q: %w", dir, err)
	}
	return &HTMLArchive{dir: dir}, nil
}

// Save writes the markup under a filename derived from the URL plus a
// timestamp.
func (a *HTMLArchive) Save(url, markup string) error {
	path := filepath.Join(a.dir, a.filename(url))
	if err := os.WriteFile(path, []byte(markup), 0644); err != nil {
		return fmt.Errorf("archive: write %q: %w", path, err)
	}
	return nil
}

func (a *HTMLArchive) filename(url string) string {
	base := schemePrefixRe.ReplaceAllString(url, "")
	base = strings.TrimRight(base, "/")
	base = strings.ReplaceAll(base, "/", "_")
	return fmt.Sprintf("%s_%s.html", base, time.Now().Format("20060102_150405"))
}
