// Package vault is the filesystem capability the sync engine writes through.
//
// All paths are relative to the vault root. The engine only ever needs to
// check for a note, read the cache document, create a note that must not
// already exist, and atomically replace the cache document; FS exposes
// exactly that.
//
// # Usage
//
//	v := vault.NewOS("/home/me/Notes")
//	ok, err := v.Exists("References/Sapiens.md")
//
// Tests use an in-memory filesystem:
//
//	v := vault.New(afero.NewMemMapFs(), "/")
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// ErrExist is returned by Create when the target already exists.
var ErrExist = fs.ErrExist

// FS is the set of filesystem operations the sync engine depends on.
type FS interface {
	Exists(path string) (bool, error)
	Read(path string) ([]byte, error)
	// Create writes a new file and fails with ErrExist if it is already there.
	Create(path string, content []byte) error
	// Replace overwrites path atomically: readers see either the old or the
	// new content, never a partial write.
	Replace(path string, content []byte) error
}

// Vault implements FS on top of an afero filesystem rooted at a directory.
type Vault struct {
	fs   afero.Fs
	root string
	mode os.FileMode
}

// New returns a vault confined to root inside fsys. A relative root is
// resolved against the working directory; afero's base path filesystem
// rejects every path under a relative base.
func New(fsys afero.Fs, root string) *Vault {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Vault{
		fs:   afero.NewBasePathFs(fsys, root),
		root: root,
		mode: 0o644,
	}
}

// NewOS returns a vault on the host filesystem.
func NewOS(root string) *Vault {
	return New(afero.NewOsFs(), root)
}

// Root returns the directory the vault is rooted at.
func (v *Vault) Root() string {
	return v.root
}

// Exists reports whether path exists in the vault.
func (v *Vault) Exists(path string) (bool, error) {
	ok, err := afero.Exists(v.fs, path)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return ok, nil
}

// IsDir reports whether path exists and is a directory.
func (v *Vault) IsDir(path string) (bool, error) {
	ok, err := afero.IsDir(v.fs, path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return ok, nil
}

// Read returns the content of path. A missing file yields an error
// matching fs.ErrNotExist.
func (v *Vault) Read(path string) ([]byte, error) {
	return afero.ReadFile(v.fs, path)
}

// Create writes content to a new file at path. Parent directories are not
// created.
func (v *Vault) Create(path string, content []byte) error {
	f, err := v.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, v.mode)
	if err != nil {
		return err
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// Replace writes content to a temporary file next to path and renames it
// over path.
func (v *Vault) Replace(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmpFile, err := afero.TempFile(v.fs, dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()
	committed := false
	defer func() {
		if !committed {
			_ = v.fs.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(content); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := v.fs.Chmod(tmpName, v.mode); err != nil {
		return err
	}
	if err := v.fs.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}

// CheckWritable verifies the vault root exists and accepts new files.
func (v *Vault) CheckWritable() error {
	ok, err := v.IsDir(".")
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("vault directory %s does not exist", v.root)
	}

	marker := ".highlights-sync"
	if err := v.Replace(marker, nil); err != nil {
		return fmt.Errorf("vault directory %s is not writable: %w", v.root, err)
	}
	return v.fs.Remove(marker)
}
