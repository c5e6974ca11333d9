// Package filesystem provides the local file system backend for the WebDAV
// protocol engine. All operations are sandboxed in an os.Root, so request
// paths cannot escape the serving directory.
package filesystem

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"golang.org/x/net/webdav"
)

var _ webdav.FileSystem = (*Store)(nil)

// Options tunes how request paths map onto the serving directory.
type Options struct {
	// CaseInsensitive resolves path components that do not exist verbatim
	// against a case-folded match in their parent directory.
	CaseInsensitive bool
	// FollowSymlinks allows symlinks as the final path component. Links are
	// never followed outside the root either way.
	FollowSymlinks bool
	// MacOS hides AppleDouble (._*) and .DS_Store entries from listings.
	MacOS bool
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Store implements webdav.FileSystem on top of an os.Root.
type Store struct {
	root   *os.Root
	opts   Options
	logger *slog.Logger
}

// New creates a Store serving the given root.
func New(root *os.Root, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{root: root, opts: opts, logger: logger}
}

// Ping verifies the serving directory is still accessible.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.root.Stat(".")
	return err
}

// Mkdir creates a single directory.
func (s *Store) Mkdir(ctx context.Context, name string, perm os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.root.Mkdir(s.resolve(name), perm)
}

// OpenFile opens a file or directory for the protocol engine.
func (s *Store) OpenFile(ctx context.Context, name string, flag int, perm os.FileMode) (webdav.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel := s.resolve(name)

	if !s.opts.FollowSymlinks {
		if fi, err := s.root.Lstat(rel); err == nil && fi.Mode()&fs.ModeSymlink != 0 {
			return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
		}
	}

	f, err := s.root.OpenFile(rel, flag, perm)
	if err != nil {
		return nil, err
	}

	if s.opts.MacOS {
		return &filteredFile{File: f}, nil
	}
	return f, nil
}

// RemoveAll removes a file or directory tree. The root itself cannot be removed.
func (s *Store) RemoveAll(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rel := s.resolve(name)
	if rel == "." {
		return &fs.PathError{Op: "removeall", Path: name, Err: fs.ErrPermission}
	}

	return s.root.RemoveAll(rel)
}

// Rename moves oldName to newName. Neither may be the root.
func (s *Store) Rename(ctx context.Context, oldName, newName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	oldRel := s.resolve(oldName)
	newRel := s.resolve(newName)
	if oldRel == "." || newRel == "." {
		return &os.LinkError{Op: "rename", Old: oldName, New: newName, Err: fs.ErrPermission}
	}

	return s.root.Rename(oldRel, newRel)
}

// Stat returns file info for name. Without FollowSymlinks a symlink is
// reported as itself.
func (s *Store) Stat(ctx context.Context, name string) (os.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel := s.resolve(name)
	if s.opts.FollowSymlinks {
		return s.root.Stat(rel)
	}
	return s.root.Lstat(rel)
}

// relPath turns a slash-rooted engine path into a path relative to the root.
func relPath(name string) string {
	p := strings.TrimPrefix(path.Clean("/"+name), "/")
	if p == "" {
		return "."
	}
	return p
}

// resolve maps name to a root-relative path, applying case-insensitive
// lookup when enabled. Components with no match are kept as given so that
// create operations land on the requested name.
func (s *Store) resolve(name string) string {
	rel := relPath(name)
	if !s.opts.CaseInsensitive || rel == "." {
		return rel
	}

	if _, err := s.root.Lstat(rel); err == nil {
		return rel
	}

	parts := strings.Split(rel, "/")
	resolved := make([]string, 0, len(parts))

	for i, part := range parts {
		parent := "."
		if len(resolved) > 0 {
			parent = path.Join(resolved...)
		}

		if _, err := s.root.Lstat(path.Join(parent, part)); err == nil {
			resolved = append(resolved, part)
			continue
		}

		match, ok := s.lookupFold(parent, part)
		if !ok {
			resolved = append(resolved, parts[i:]...)
			break
		}
		resolved = append(resolved, match)
	}

	return path.Join(resolved...)
}

// lookupFold finds the entry in dir whose name equals name under case
// folding. With several candidates the lexically smallest wins.
func (s *Store) lookupFold(dir, name string) (string, bool) {
	d, err := s.root.Open(dir)
	if err != nil {
		return "", false
	}
	defer func() {
		if closeErr := d.Close(); closeErr != nil {
			s.logger.Warn("failed to close directory", "dir", dir, "err", closeErr)
		}
	}()

	names, err := d.Readdirnames(-1)
	if err != nil {
		return "", false
	}
	sort.Strings(names)

	for _, n := range names {
		if strings.EqualFold(n, name) {
			return n, true
		}
	}
	return "", false
}

// isMacOSMetadata reports whether name is a Finder metadata file.
func isMacOSMetadata(name string) bool {
	return name == ".DS_Store" || strings.HasPrefix(name, "._")
}

// filteredFile hides Finder metadata from directory listings.
type filteredFile struct {
	*os.File
}

func (f *filteredFile) Readdir(count int) ([]fs.FileInfo, error) {
	for {
		infos, err := f.File.Readdir(count)

		kept := infos[:0]
		for _, fi := range infos {
			if !isMacOSMetadata(fi.Name()) {
				kept = append(kept, fi)
			}
		}

		if len(kept) > 0 || err != nil || count <= 0 || len(infos) == 0 {
			return kept, err
		}
	}
}
