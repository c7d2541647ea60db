package assets

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/ivlev/reelforge/internal/pkg/errors"
)

var localExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".pdf"}

// LocalFetcher resolves queries against files on disk. A query may be a path, or words
// matched against file names in Dir ("city night" finds city-night.jpg). PDFs contribute
// their first page, rasterized at DPI.
type LocalFetcher struct {
	Dir string
	DPI float64
}

func NewLocalFetcher(dir string) *LocalFetcher {
	return &LocalFetcher{Dir: dir, DPI: 150}
}

func (l *LocalFetcher) Fetch(ctx context.Context, query string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := l.resolve(query)
	if err != nil {
		return nil, errors.AssetLoadFailure(query, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		data, err := l.renderPDF(path)
		if err != nil {
			return nil, errors.AssetLoadFailure(query, err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.AssetLoadFailure(query, err)
	}
	return data, nil
}

func (l *LocalFetcher) resolve(query string) (string, error) {
	if fi, err := os.Stat(query); err == nil && !fi.IsDir() {
		return query, nil
	}

	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return "", err
	}

	want := slug(query)
	var partial []string
	for _, e := range entries {
		if e.IsDir() || !isLocalImage(e.Name()) {
			continue
		}
		base := slug(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
		if base == want {
			return filepath.Join(l.Dir, e.Name()), nil
		}
		if want != "" && strings.Contains(base, want) {
			partial = append(partial, filepath.Join(l.Dir, e.Name()))
		}
	}
	if len(partial) > 0 {
		sort.Strings(partial)
		return partial[0], nil
	}
	return "", errors.Newf(errors.CodeNotFound, "no local image for %q in %s", query, l.Dir)
}

func (l *LocalFetcher) renderPDF(path string) ([]byte, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("pdf %s has no pages", path)
	}
	img, err := doc.ImageDPI(0, l.DPI)
	if err != nil {
		return nil, fmt.Errorf("render pdf page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isLocalImage(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range localExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// slug lowercases and joins words with dashes.
func slug(s string) string {
	f := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return strings.Join(f, "-")
}
