package document

import (
	"os"

	"github.com/matzehuels/topolab/pkg/errors"
)

// FS is the minimal file-system capability the engine needs: whole-file
// reads and writes plus rename and delete. It exists so tests and remote
// hosts can substitute their own storage.
type FS interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	Rename(oldPath, newPath string) error
	Remove(path string) error
}

// OSFS implements FS on the local file system.
type OSFS struct{}

func (OSFS) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

func (OSFS) WriteFile(path string, data []byte) error { return os.WriteFile(path, data, 0644) }

func (OSFS) Rename(oldPath, newPath string) error { return os.Rename(oldPath, newPath) }

func (OSFS) Remove(path string) error { return os.Remove(path) }

var _ FS = OSFS{}

// Load reads and parses a topology file.
func Load(fsys FS, path string) (*Document, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.CodeFileNotFound, err, "topology file %s", path)
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "read topology file %s", path)
	}
	return Parse(data)
}

// Save serializes the document and writes it back through fsys.
func (d *Document) Save(fsys FS, path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	if err := fsys.WriteFile(path, data); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "write topology file %s", path)
	}
	return nil
}
