// Package assets provides the static files bundled with the server.
package assets

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// DogImage is the logical name of the bundled JPEG.
const DogImage = "dog.jpg"

var ErrNotFound = errors.New("asset not found")

//go:embed static
var static embed.FS

// Provider returns the full contents of a named asset.
type Provider interface {
	Open(name string) ([]byte, error)
}

type fsProvider struct {
	fsys fs.FS
}

// Embedded serves the assets compiled into the binary.
func Embedded() Provider {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return fsProvider{fsys: sub}
}

// Dir serves assets from a directory on disk.
func Dir(path string) Provider {
	return fsProvider{fsys: os.DirFS(path)}
}

func (p fsProvider) Open(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, errors.Wrapf(ErrNotFound, "invalid asset name %q", name)
	}
	b, err := fs.ReadFile(p.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrapf(ErrNotFound, "%s", name)
	}
	return b, errors.Wrapf(err, "reading asset %s", name)
}

// Layered consults each provider in turn and returns the first hit.
type Layered []Provider

func (l Layered) Open(name string) ([]byte, error) {
	for _, p := range l {
		b, err := p.Open(name)
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "%s", name)
}

// New returns the embedded assets, overridden by files in dir when dir is
// not empty.
func New(dir string) Provider {
	if dir == "" {
		return Embedded()
	}
	return Layered{Dir(filepath.Clean(dir)), Embedded()}
}
