// Package media stores uploaded song images on local disk.
//
// An [Ingestor] accepts a stream and its client file name, checks the extension against an
// allow-list, writes the bytes under a collision-free name and decodes the result to make
// sure it really is an image. A failed upload never leaves a file behind.
package media

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cancionero/internal/shared"
)

// DefaultMaxBytes caps a single upload at 16 MiB.
const DefaultMaxBytes int64 = 16 << 20

// DefaultMaxPixels caps the decoded size of an image at roughly 89 megapixels.
// A few hundred kilobytes of compressed data can declare far more than that.
const DefaultMaxPixels int64 = 89_478_485

// Ingestor validates and persists uploaded images in a single flat directory.
type Ingestor struct {
	dir       string
	allowed   []string
	maxBytes  int64
	maxPixels int64
	logger    *log.Logger
}

// NewIngestor creates the upload directory when missing and returns an [Ingestor] rooted there.
// A non-positive maxBytes falls back to [DefaultMaxBytes], a non-positive
// cfg.MaxPixels to [DefaultMaxPixels].
func NewIngestor(cfg shared.MediaConfig, maxBytes int64, logger *log.Logger) (*Ingestor, error) {
	if cfg.UploadDir == "" {
		return nil, fmt.Errorf("%w: upload directory is required", shared.ErrInvalidConfig)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create upload directory: %v", shared.ErrStorage, err)
	}

	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	maxPixels := cfg.MaxPixels
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	allowed := make([]string, 0, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed = append(allowed, strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), ".")))
	}

	return &Ingestor{
		dir:       cfg.UploadDir,
		allowed:   allowed,
		maxBytes:  maxBytes,
		maxPixels: maxPixels,
		logger:    logger,
	}, nil
}

// Dir returns the upload directory.
func (i *Ingestor) Dir() string { return i.dir }

// MaxBytes returns the largest accepted upload size.
func (i *Ingestor) MaxBytes() int64 { return i.maxBytes }

// Allowed reports whether a file name carries an accepted extension.
func (i *Ingestor) Allowed(filename string) bool {
	ext := extension(filename)
	return ext != "" && slices.Contains(i.allowed, ext)
}

// Store writes r to the upload directory and returns the stored reference "{token}_{secure name}".
//
// Failures are reported as [shared.ErrValidation] (missing file, extension not allowed, too large,
// not a decodable image) or [shared.ErrStorage] (disk errors). In every failure case the
// partially written file is removed.
func (i *Ingestor) Store(ctx context.Context, r io.Reader, filename string) (string, error) {
	if r == nil || filename == "" {
		return "", fmt.Errorf("%w: no file provided", shared.ErrValidation)
	}

	if !i.Allowed(filename) {
		return "", fmt.Errorf("%w: file type not allowed: %q", shared.ErrValidation, filename)
	}

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrStorage, err)
	}

	secure := SecureFilename(filename)
	if !i.Allowed(secure) {
		secure = "upload." + extension(filename)
	}

	ref := shared.GenerateToken() + "_" + secure
	path := filepath.Join(i.dir, ref)

	if err := i.write(path, r); err != nil {
		i.discard(path)
		return "", err
	}

	if err := i.verifyImage(path); err != nil {
		i.discard(path)
		return "", err
	}

	if i.logger != nil {
		i.logger.Debug("stored image", "ref", ref, "original", filename)
	}
	return ref, nil
}

func (i *Ingestor) write(path string, r io.Reader) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("%w: failed to create file: %v", shared.ErrStorage, err)
	}

	n, copyErr := io.Copy(file, io.LimitReader(r, i.maxBytes+1))
	closeErr := file.Close()

	switch {
	case copyErr != nil:
		return fmt.Errorf("%w: failed to write file: %v", shared.ErrStorage, copyErr)
	case closeErr != nil:
		return fmt.Errorf("%w: failed to close file: %v", shared.ErrStorage, closeErr)
	case n > i.maxBytes:
		return fmt.Errorf("%w: file exceeds %d bytes", shared.ErrValidation, i.maxBytes)
	case n == 0:
		return fmt.Errorf("%w: empty file", shared.ErrValidation)
	}
	return nil
}

// verifyImage fully decodes the file; truncated, disguised or oversized images fail here.
func (i *Ingestor) verifyImage(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: failed to reopen file: %v", shared.ErrStorage, err)
	}
	defer file.Close()

	_, _, err = Decode(file, i.maxPixels)
	return err
}

// Decode reads the image header first and refuses images larger than maxPixels before
// any raster is allocated, then decodes the whole image.
//
// Undecodable data and oversized images are reported as [shared.ErrValidation].
func Decode(r io.ReadSeeker, maxPixels int64) (image.Image, string, error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: not a valid image: %v", shared.ErrValidation, err)
	}

	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > maxPixels {
		return nil, "", fmt.Errorf("%w: image is %dx%d, exceeds %d pixels", shared.ErrValidation, cfg.Width, cfg.Height, maxPixels)
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, "", fmt.Errorf("%w: failed to rewind image: %v", shared.ErrStorage, err)
	}

	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: not a valid image: %v", shared.ErrValidation, err)
	}
	return img, format, nil
}

func (i *Ingestor) discard(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) && i.logger != nil {
		i.logger.Warn("failed to remove rejected upload", "path", path, "error", err)
	}
}

// Path resolves a stored reference to its location on disk.
// References that are not flat secure file names are rejected with [shared.ErrValidation].
func (i *Ingestor) Path(ref string) (string, error) {
	if ref == "" || ref != SecureFilename(ref) {
		return "", fmt.Errorf("%w: invalid media reference %q", shared.ErrValidation, ref)
	}
	return filepath.Join(i.dir, ref), nil
}

// Exists reports whether ref names a stored file.
func (i *Ingestor) Exists(ref string) bool {
	path, err := i.Path(ref)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Remove deletes a stored file. A file that is already gone is not an error.
func (i *Ingestor) Remove(ref string) error {
	path, err := i.Path(ref)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: failed to delete file: %v", shared.ErrStorage, err)
	}
	return nil
}
