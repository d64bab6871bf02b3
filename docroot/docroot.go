// Package docroot exposes the one served file as a read-only billy filesystem.
//
// A Root contains exactly two entries: the root directory and the served file.
// Every other path does not exist and every mutation fails with
// billy.ErrReadOnly. The file is opened on every call, nothing is cached.
package docroot

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

var ErrInvalidName = errors.New("docroot: invalid file name")

type Root struct {
	fs   billy.Filesystem
	name string
}

var _ billy.Filesystem = (*Root)(nil)

// Open serves the file at p from the operating system filesystem. p does not
// need to exist yet.
func Open(p string) (*Root, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, fmt.Errorf("docroot: resolve %q: %w", p, err)
	}
	return New(osfs.New(filepath.Dir(abs)), filepath.Base(abs))
}

// New serves name, a file at the top level of fs.
func New(fs billy.Filesystem, name string) (*Root, error) {
	clean := strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(name)), "/")
	if clean == "" || clean == "." || strings.Contains(clean, "/") {
		return nil, fmt.Errorf("%w %q", ErrInvalidName, name)
	}
	return &Root{fs: fs, name: clean}, nil
}

// Name is the served file's name inside the Root.
func (r *Root) Name() string { return r.name }

func (r *Root) clean(p string) string {
	return path.Clean("/" + filepath.ToSlash(p))
}

func (r *Root) isFile(p string) bool { return r.clean(p) == "/"+r.name }
func (r *Root) isRoot(p string) bool { return r.clean(p) == "/" }

func notExist(op, p string) error {
	return &os.PathError{Op: op, Path: p, Err: os.ErrNotExist}
}

func readOnly(op, p string) error {
	return &os.PathError{Op: op, Path: p, Err: billy.ErrReadOnly}
}

func (r *Root) Open(filename string) (billy.File, error) {
	if !r.isFile(filename) {
		return nil, notExist("open", filename)
	}
	return r.fs.Open(r.name)
}

func (r *Root) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_APPEND|os.O_CREATE|os.O_TRUNC) != 0 {
		return nil, readOnly("open", filename)
	}
	return r.Open(filename)
}

func (r *Root) Stat(filename string) (os.FileInfo, error) {
	switch {
	case r.isRoot(filename):
		return r.rootInfo(), nil
	case r.isFile(filename):
		return r.fs.Stat(r.name)
	default:
		return nil, notExist("stat", filename)
	}
}

func (r *Root) Lstat(filename string) (os.FileInfo, error) {
	return r.Stat(filename)
}

func (r *Root) ReadDir(p string) ([]os.FileInfo, error) {
	switch {
	case r.isRoot(p):
		fi, err := r.fs.Stat(r.name)
		if err != nil {
			return []os.FileInfo{}, nil
		}
		return []os.FileInfo{fi}, nil
	case r.isFile(p):
		return nil, &os.PathError{Op: "readdir", Path: p, Err: errors.New("not a directory")}
	default:
		return nil, notExist("readdir", p)
	}
}

func (r *Root) Readlink(link string) (string, error) {
	return "", &os.PathError{Op: "readlink", Path: link, Err: os.ErrInvalid}
}

func (r *Root) Join(elem ...string) string { return path.Join(elem...) }
func (r *Root) Root() string               { return "/" }

func (r *Root) Create(filename string) (billy.File, error) {
	return nil, readOnly("create", filename)
}

func (r *Root) Rename(oldpath, newpath string) error {
	return readOnly("rename", oldpath)
}

func (r *Root) Remove(filename string) error {
	return readOnly("remove", filename)
}

func (r *Root) TempFile(dir, prefix string) (billy.File, error) {
	return nil, readOnly("tempfile", dir)
}

func (r *Root) MkdirAll(filename string, perm os.FileMode) error {
	return readOnly("mkdir", filename)
}

func (r *Root) Symlink(target, link string) error {
	return readOnly("symlink", link)
}

func (r *Root) Chroot(p string) (billy.Filesystem, error) {
	return nil, billy.ErrNotSupported
}

func (r *Root) Capabilities() billy.Capability {
	return billy.ReadCapability | billy.SeekCapability
}

func (r *Root) rootInfo() os.FileInfo {
	info := dirInfo{}
	if fi, err := r.fs.Stat(r.name); err == nil {
		info.modTime = fi.ModTime()
	}
	return info
}

type dirInfo struct {
	modTime time.Time
}

func (d dirInfo) Name() string       { return "/" }
func (d dirInfo) Size() int64        { return 0 }
func (d dirInfo) Mode() os.FileMode  { return os.ModeDir | 0o555 }
func (d dirInfo) ModTime() time.Time { return d.modTime }
func (d dirInfo) IsDir() bool        { return true }
func (d dirInfo) Sys() any           { return nil }
