package asset

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/inamate/sketchboard/internal/typeid"
)

var (
	ErrNotFound    = errors.New("asset not found")
	ErrUnsupported = errors.New("unsupported image source")
)

const maxDecodeSize = 10 << 20 // 10MB

// Library stores uploaded images as PNG files named by asset id and
// resolves image source references back into pixels.
type Library struct {
	dir string
}

func NewLibrary(dir string) (*Library, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset dir: %w", err)
	}
	return &Library{dir: dir}, nil
}

func (l *Library) Dir() string { return l.dir }

// URL is the public path for an asset id.
func URL(id string) string {
	return "/assets/" + id + ".png"
}

func (l *Library) path(id string) (string, error) {
	if err := typeid.Validate(id, typeid.PrefixAsset); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return filepath.Join(l.dir, id+".png"), nil
}

// Put stores img and returns its new asset id.
func (l *Library) Put(img image.Image) (string, error) {
	id := typeid.NewAssetID()
	p, err := l.path(id)
	if err != nil {
		return "", err
	}
	out, err := os.Create(p)
	if err != nil {
		return "", fmt.Errorf("create asset file: %w", err)
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		os.Remove(p)
		return "", fmt.Errorf("encode png: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close asset file: %w", err)
	}
	return id, nil
}

// Open decodes a stored asset.
func (l *Library) Open(id string) (image.Image, error) {
	p, err := l.path(id)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", id, err)
	}
	return img, nil
}

// Remove deletes an asset file from disk.
func (l *Library) Remove(id string) error {
	p, err := l.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return err
	}
	return nil
}

// Decode resolves a source reference: a data: URL, an /assets/ path or a
// bare asset id.
func (l *Library) Decode(ctx context.Context, src string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch {
	case strings.HasPrefix(src, "data:"):
		return decodeDataURL(src)
	case strings.HasPrefix(src, "/assets/"):
		name := strings.TrimPrefix(src, "/assets/")
		return l.Open(strings.TrimSuffix(name, filepath.Ext(name)))
	case strings.HasPrefix(src, typeid.PrefixAsset+"_"):
		return l.Open(src)
	}
	return nil, fmt.Errorf("%w: %.32q", ErrUnsupported, src)
}

// DataURLDecoder resolves data: URLs only. It serves editors that have no
// asset library on disk.
type DataURLDecoder struct{}

func (DataURLDecoder) Decode(ctx context.Context, src string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(src, "data:") {
		return nil, fmt.Errorf("%w: %.32q", ErrUnsupported, src)
	}
	return decodeDataURL(src)
}

func decodeDataURL(src string) (image.Image, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok || !strings.HasPrefix(meta, "image/") {
		return nil, fmt.Errorf("%w: not an image data URL", ErrUnsupported)
	}

	var raw []byte
	if strings.HasSuffix(meta, ";base64") {
		if base64.StdEncoding.DecodedLen(len(payload)) > maxDecodeSize {
			return nil, fmt.Errorf("%w: image too large", ErrUnsupported)
		}
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode data URL: %w", err)
		}
		raw = b
	} else {
		s, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("decode data URL: %w", err)
		}
		raw = []byte(s)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
