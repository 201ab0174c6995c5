// Package rom reads Chip-8 program images from storage and lists the ROMs in a directory.
package rom

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/guslan/chip8"
)

// Extensions commonly used for Chip-8 program images
var Extensions = []string{".ch8", ".c8", ".rom"}

// Entry is a ROM found in a catalog
type Entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Read loads a ROM from disk, refusing files that do not fit into memory.
func Read(name string) ([]byte, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadFrom(f)
}

// ReadFS loads a ROM from fsys
func ReadFS(fsys fs.FS, name string) ([]byte, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadFrom(f)
}

// ReadFrom reads at most chip8.MaxProgramSize bytes from r.
func ReadFrom(r io.Reader) ([]byte, error) {
	program, err := io.ReadAll(io.LimitReader(r, chip8.MaxProgramSize+1))
	if err != nil {
		return nil, err
	}

	if len(program) > chip8.MaxProgramSize {
		return nil, fmt.Errorf("%w: more than %d bytes", chip8.ErrProgramTooLarge, chip8.MaxProgramSize)
	}

	return program, nil
}

// Catalog lists the ROMs at the root of fsys, sorted by name.
// Hidden files and files with unknown extensions are skipped.
func Catalog(fsys fs.FS) ([]Entry, error) {
	dirEntries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || strings.HasPrefix(de.Name(), ".") || !HasRomExtension(de.Name()) {
			continue
		}

		info, err := de.Info()
		if err != nil {
			return nil, err
		}

		entries = append(entries, Entry{
			Name: strings.TrimSuffix(de.Name(), path.Ext(de.Name())),
			Path: de.Name(),
			Size: info.Size(),
		})
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})

	return entries, nil
}

func HasRomExtension(name string) bool {
	return slices.Contains(Extensions, strings.ToLower(path.Ext(name)))
}
