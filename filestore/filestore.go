// Package filestore keeps uploaded partner documents and menu images.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrUnsupportedType = errors.New("unsupported file type")

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".pdf":  true,
}

type Store interface {
	// Save stores r under a fresh name derived from original and returns the
	// URL clients use to fetch it.
	Save(ctx context.Context, original string, r io.Reader, contentType string) (string, error)
}

// objectName returns a collision-free name that keeps the original extension.
func objectName(original string) (string, error) {
	ext := strings.ToLower(filepath.Ext(original))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	return uuid.NewString() + ext, nil
}

// Local writes files into a directory served by the HTTP layer under URLPrefix.
type Local struct {
	Dir       string
	URLPrefix string
}

func NewLocal(dir, urlPrefix string) (*Local, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Local{Dir: dir, URLPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (l *Local) Save(ctx context.Context, original string, r io.Reader, _ string) (string, error) {
	name, err := objectName(original)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst, err := os.Create(filepath.Join(l.Dir, name))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("save file: %w", err)
	}
	return l.URLPrefix + "/" + name, nil
}
