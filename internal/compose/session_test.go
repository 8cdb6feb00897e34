package compose

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mostrador/internal/catalog"
	"mostrador/internal/media"
)

type countingStore struct {
	seq      int
	releases int
}

func (s *countingStore) Create(fileName string, r io.Reader) (*media.Handle, error) {
	_, _ = io.Copy(io.Discard, r)
	s.seq++
	return &media.Handle{ID: fmt.Sprintf("h%d", s.seq), FileName: fileName}, nil
}

func (s *countingStore) Read(h *media.Handle) ([]byte, error) {
	return []byte(h.ID), nil
}

func (s *countingStore) Release(h *media.Handle) error {
	s.releases++
	return nil
}

func TestRowsResolveLabelsFromCache(t *testing.T) {
	cache := catalog.NewCache()
	cache.MergeColors([]catalog.Entity{{ID: 1, Name: "Rojo"}})
	cache.MergeSizes([]catalog.Entity{{ID: 10, Name: "S"}})

	sess := newSession("x", cache, media.NewManager(&countingStore{}, 5, 1024))
	sess.ToggleColor(1)
	sess.ToggleColor(2) // never fetched
	sess.ToggleSize(10)

	rows := sess.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "Rojo", rows[0].Color.Name)
	assert.Equal(t, "Color #2", rows[1].Color.Name, "unknown ids render a placeholder")
	assert.Equal(t, "S", rows[1].Size.Name)
}

func TestStateReflectsFocusAndEditor(t *testing.T) {
	cache := catalog.NewCache()
	sess := newSession("x", cache, media.NewManager(&countingStore{}, 5, 1024))

	sess.ToggleColor(3)
	st := sess.State()
	assert.EqualValues(t, 3, st.FocusedID)
	assert.False(t, st.EditorOpen)
	assert.Nil(t, st.Draft)

	sess.OpenMedia()
	st = sess.State()
	assert.True(t, st.EditorOpen)
	assert.NotNil(t, st.Draft)
}

func TestRegistryRemoveReleasesHandles(t *testing.T) {
	store := &countingStore{}
	codes, err := NewCodeGenerator("test")
	require.NoError(t, err)

	reg := NewRegistry(codes, catalog.NewCache(), store, RegistryConfig{
		MaxPerColor:  5,
		MaxFileBytes: 1024,
	})

	sess, err := reg.Create()
	require.NoError(t, err)

	got, ok := reg.Get(sess.Code())
	require.True(t, ok)
	assert.Same(t, sess, got)

	sess.OpenMedia()
	_, err = sess.AddMediaFiles(1, []media.Upload{{
		Name: "a.png",
		Size: 8,
		R:    bytes.NewReader([]byte("\x89PNG\r\n\x1a\n")),
	}})
	require.NoError(t, err)

	reg.Remove(sess.Code())
	_, ok = reg.Get(sess.Code())
	assert.False(t, ok)
	assert.Equal(t, 1, store.releases, "pending candidate released on teardown")
}

func TestCodeGeneratorProducesDistinctCodes(t *testing.T) {
	codes, err := NewCodeGenerator("secret")
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		code, err := codes.Next()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(code), 8)
		_, dup := seen[code]
		assert.False(t, dup, "duplicate code %s", code)
		seen[code] = struct{}{}
	}
}
