package install

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/3leaps/mingwup/internal/model"
)

// extractedRoot returns the single top-level directory 7z produced.
func extractedRoot(scratch string) (string, error) {
	entries, err := os.ReadDir(scratch)
	if err != nil {
		return "", model.E(model.KindFilesystem, "read scratch directory", err)
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		return "", model.Errorf(model.KindFormat, "relocate", "expected one top-level directory in archive, found %v", names)
	}
	return filepath.Join(scratch, entries[0].Name()), nil
}

// move puts src at dst with rename, copying when that is not possible (for
// example across devices). A failed copy leaves nothing at dst.
func move(ctx context.Context, logger hclog.Logger, rename func(string, string) error, src, dst string) error {
	err := rename(src, dst)
	if err == nil {
		return nil
	}
	logger.Debug("rename failed, copying instead", "from", src, "to", dst, "error", err)

	c := copier{ctx: ctx, logger: logger}
	if err := c.copyEntry(src, dst); err != nil {
		os.RemoveAll(dst)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return model.E(model.KindFilesystem, "copy into place", err)
	}
	if err := os.RemoveAll(src); err != nil {
		logger.Warn("could not remove extracted copy", "path", src, "error", err)
	}
	return nil
}

type copier struct {
	ctx    context.Context
	logger hclog.Logger
}

func (c *copier) copyEntry(from, to string) error {
	if err := c.ctx.Err(); err != nil {
		return err
	}

	c.logger.Trace("copy entry", "from", from, "to", to)

	fi, err := os.Lstat(from)
	if err != nil {
		return err
	}

	switch fi.Mode() & os.ModeType {
	case 0:
		if err := copyFile(from, to, fi.Mode().Perm()); err != nil {
			return err
		}
	case os.ModeDir:
		if err := os.MkdirAll(to, fi.Mode().Perm()|0o700); err != nil {
			return err
		}

		f, err := os.Open(from)
		if err != nil {
			return err
		}
		names, err := f.Readdirnames(-1)
		f.Close()
		if err != nil && err != io.EOF {
			return err
		}

		sort.Strings(names)

		for _, name := range names {
			if err := c.copyEntry(filepath.Join(from, name), filepath.Join(to, name)); err != nil {
				return err
			}
		}
	case os.ModeSymlink:
		link, err := os.Readlink(from)
		if err != nil {
			return err
		}
		return os.Symlink(link, to)
	default:
		c.logger.Debug("skipping special file", "path", from)
		return nil
	}

	os.Chtimes(to, time.Time{}, fi.ModTime())
	return nil
}

func copyFile(from, to string, perm os.FileMode) error {
	src, err := os.Open(from)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(to, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
