package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// Handle is a locally created, revocable reference to staged image bytes plus
// a generated preview. A handle is released exactly once over its lifetime;
// the Manager decides when, the HandleStore only does the work.
type Handle struct {
	ID        string
	FileName  string
	Path      string
	ThumbPath string
	Size      int64
}

type HandleStore interface {
	Create(fileName string, r io.Reader) (*Handle, error)
	Read(h *Handle) ([]byte, error)
	Release(h *Handle) error
}

// DiskStore stages uploads under a scratch directory and renders a fixed-size
// preview next to each staged file.
type DiskStore struct {
	dir       string
	thumbSize int
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &DiskStore{dir: dir, thumbSize: 256}, nil
}

func (s *DiskStore) Create(fileName string, r io.Reader) (*Handle, error) {
	id := uuid.NewString()
	path := filepath.Join(s.dir, id+filepath.Ext(fileName))

	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("stage file: %w", err)
	}
	size, err := io.Copy(dst, r)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("stage file: %w", err)
	}

	h := &Handle{ID: id, FileName: fileName, Path: path, Size: size}

	// Previews are best effort: a format imaging can't decode still stages fine.
	if img, derr := imaging.Open(path); derr == nil {
		thumb := imaging.Fit(img, s.thumbSize, s.thumbSize, imaging.Lanczos)
		thumbPath := filepath.Join(s.dir, id+"_thumb.jpg")
		if serr := imaging.Save(thumb, thumbPath); serr == nil {
			h.ThumbPath = thumbPath
		}
	}
	return h, nil
}

func (s *DiskStore) Read(h *Handle) ([]byte, error) {
	return os.ReadFile(h.Path)
}

func (s *DiskStore) Release(h *Handle) error {
	if h == nil {
		return nil
	}
	err := os.Remove(h.Path)
	if h.ThumbPath != "" {
		if terr := os.Remove(h.ThumbPath); err == nil {
			err = terr
		}
	}
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release handle %s: %w", h.ID, err)
	}
	return nil
}
