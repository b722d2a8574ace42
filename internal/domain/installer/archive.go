package installer

import (
	"archive/tar"
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

type format int

const (
	formatZip format = iota + 1
	formatTarGz
	formatTarZst
)

func (f format) String() string {
	switch f {
	case formatZip:
		return "zip"
	case formatTarGz:
		return "tar.gz"
	case formatTarZst:
		return "tar.zst"
	default:
		return "unknown"
	}
}

// detectFormat sniffs the archive content, falling back to the package name
func detectFormat(file, pkg string) (format, error) {
	if mtype, err := mimetype.DetectFile(file); err == nil {
		for m := mtype; m != nil; m = m.Parent() {
			switch {
			case m.Is("application/zip"):
				return formatZip, nil
			case m.Is("application/gzip"):
				return formatTarGz, nil
			case m.Is("application/zstd"):
				return formatTarZst, nil
			}
		}
	}

	lower := strings.ToLower(pkg)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return formatZip, nil
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return formatTarGz, nil
	case strings.HasSuffix(lower, ".tar.zst"):
		return formatTarZst, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedArchive, pkg)
}

// entry is one member of an archive
type entry struct {
	name string // Slash-separated path inside the archive
	dir  bool
	mode fs.FileMode
	open func() (io.ReadCloser, error)
}

// walkArchive calls fn for every directory and regular file in the archive.
// Links and special files are skipped.
func walkArchive(ctx context.Context, file string, f format, fn func(entry) error) error {
	switch f {
	case formatZip:
		return walkZip(ctx, file, fn)
	case formatTarGz, formatTarZst:
		return walkTar(ctx, file, f, fn)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedArchive, f)
	}
}

func walkZip(ctx context.Context, file string, fn func(entry) error) error {
	reader, err := zip.OpenReader(file)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer reader.Close()

	for _, member := range reader.File {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("extraction cancelled: %w", err)
		}

		mode := member.Mode()
		if !mode.IsDir() && !mode.IsRegular() {
			continue
		}
		if err := fn(entry{
			name: member.Name,
			dir:  mode.IsDir(),
			mode: mode.Perm(),
			open: member.Open,
		}); err != nil {
			return err
		}
	}
	return nil
}

func walkTar(ctx context.Context, file string, f format, fn func(entry) error) error {
	raw, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer raw.Close()

	var stream io.Reader
	switch f {
	case formatTarGz:
		gz, err := gzip.NewReader(raw)
		if err != nil {
			return fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		stream = gz
	case formatTarZst:
		zr, err := zstd.NewReader(raw)
		if err != nil {
			return fmt.Errorf("zstd: %w", err)
		}
		defer zr.Close()
		stream = zr
	}

	tr := tar.NewReader(stream)
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("extraction cancelled: %w", err)
		}

		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar: %w", err)
		}

		var e entry
		switch header.Typeflag {
		case tar.TypeDir:
			e = entry{name: header.Name, dir: true}
		case tar.TypeReg:
			e = entry{
				name: header.Name,
				mode: fs.FileMode(header.Mode).Perm(),
				open: func() (io.ReadCloser, error) { return io.NopCloser(tr), nil },
			}
		default:
			continue
		}
		if err := fn(e); err != nil {
			return err
		}
	}
}

// within reports whether target stays inside root
func within(root, target string) bool {
	root = filepath.Clean(root)
	return target == root || strings.HasPrefix(target, root+string(os.PathSeparator))
}

// writeEntry copies a file entry to target and returns the bytes written
func writeEntry(e entry, target string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, err
	}

	src, err := e.open()
	if err != nil {
		return 0, err
	}
	defer src.Close()

	perm := e.mode
	if perm == 0 {
		perm = 0o644
	}
	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0o600)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	return n, err
}
