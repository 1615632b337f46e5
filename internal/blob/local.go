// Package blob stores uploaded document files on local disk.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	id "idverify/pkg/domain"
)

// ErrForeignURL is returned by Delete for URLs this writer did not produce.
var ErrForeignURL = errors.New("blob: url is not managed by this writer")

// LocalWriter writes files under Dir/<owner>/ and hands out URLs under BaseURL.
type LocalWriter struct {
	dir     string
	baseURL string
}

func NewLocalWriter(dir, baseURL string) (*LocalWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalWriter{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Write streams r to a fresh file and returns its public URL. The stored name
// is random; only the extension of fileName is kept.
func (w *LocalWriter) Write(ctx context.Context, owner id.UserID, fileName string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ownerDir := filepath.Join(w.dir, owner.String())
	if err := os.MkdirAll(ownerDir, 0o755); err != nil {
		return "", fmt.Errorf("create owner dir: %w", err)
	}

	name := uuid.NewString() + cleanExt(fileName)
	tmp, err := os.CreateTemp(ownerDir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(ownerDir, name)); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return w.baseURL + "/" + owner.String() + "/" + name, nil
}

// Delete removes the file behind url. Missing files are not an error.
func (w *LocalWriter) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := w.pathFor(url)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

func (w *LocalWriter) pathFor(url string) (string, error) {
	rel, ok := strings.CutPrefix(url, w.baseURL+"/")
	if !ok {
		return "", ErrForeignURL
	}
	if path.Clean(rel) != rel {
		return "", ErrForeignURL
	}
	parts := strings.Split(rel, "/")
	if len(parts) != 2 || strings.HasPrefix(parts[1], ".") {
		return "", ErrForeignURL
	}
	if _, err := uuid.Parse(parts[0]); err != nil {
		return "", ErrForeignURL
	}
	return filepath.Join(w.dir, parts[0], parts[1]), nil
}

func cleanExt(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\ `) {
		return ""
	}
	return ext
}
