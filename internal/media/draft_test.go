package media_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mostrador/internal/media"
)

// fakeStore hands out handles without touching disk and counts releases per
// handle so exactly-once invariants are checkable. failOn makes the Nth
// Create fail.
type fakeStore struct {
	seq      int
	failOn   int
	releases map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{releases: make(map[string]int)}
}

func (f *fakeStore) Create(fileName string, r io.Reader) (*media.Handle, error) {
	_, _ = io.Copy(io.Discard, r)
	f.seq++
	if f.failOn != 0 && f.seq == f.failOn {
		return nil, errors.New("disco lleno")
	}
	id := fmt.Sprintf("h%d", f.seq)
	return &media.Handle{ID: id, FileName: fileName, Path: "/tmp/" + id}, nil
}

func (f *fakeStore) Read(h *media.Handle) ([]byte, error) {
	return []byte(h.ID), nil
}

func (f *fakeStore) Release(h *media.Handle) error {
	f.releases[h.ID]++
	return nil
}

func (f *fakeStore) totalReleases() int {
	n := 0
	for _, c := range f.releases {
		n += c
	}
	return n
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n" + "                ")

func pngUpload(name string) media.Upload {
	return media.Upload{Name: name, Size: int64(len(pngHeader)), R: bytes.NewReader(pngHeader)}
}

func addAndAccept(t *testing.T, m *media.Manager, colorID int64, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := m.AddFiles(colorID, []media.Upload{pngUpload(name)})
		require.NoError(t, err)
		_, err = m.Accept()
		require.NoError(t, err)
	}
}

func TestAddFilesRejectsNonImagesOncePerBatch(t *testing.T) {
	m := media.NewManager(newFakeStore(), 5, 1024)
	m.Open()

	report, err := m.AddFiles(1, []media.Upload{
		pngUpload("a.png"),
		{Name: "nota.txt", Size: 9, R: bytes.NewReader([]byte("plaintext"))},
		{Name: "otra.txt", Size: 9, R: bytes.NewReader([]byte("plaintext"))},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Queued)
	assert.Equal(t, 2, report.Rejected)
	// two invalid files, one notification
	assert.Len(t, report.Rejection, 1)
}

func TestAddFilesRejectsOversized(t *testing.T) {
	m := media.NewManager(newFakeStore(), 5, 4)
	m.Open()

	report, err := m.AddFiles(1, []media.Upload{pngUpload("big.png")})
	require.NoError(t, err)
	assert.Zero(t, report.Queued)
	assert.Equal(t, 1, report.Rejected)
	assert.Nil(t, m.Pending())
}

func TestFailedStagingReleasesEarlierBatchHandles(t *testing.T) {
	store := newFakeStore()
	store.failOn = 2
	m := media.NewManager(store, 5, 1024)
	m.Open()

	_, err := m.AddFiles(1, []media.Upload{pngUpload("a.png"), pngUpload("b.png")})
	require.Error(t, err)

	assert.Equal(t, 1, store.releases["h1"], "file staged before the failure is reclaimed")
	_, found := m.Lookup("h1")
	assert.False(t, found, "aborted batch leaves nothing queued")
	assert.Nil(t, m.Pending())
}

func TestItemJSONHidesHandle(t *testing.T) {
	it := media.Item{
		ID:       "x1",
		ColorID:  1,
		FileName: "a.png",
		Handle:   &media.Handle{ID: "x1", Path: "/srv/staging/x1.png", ThumbPath: "/srv/staging/x1_thumb.jpg"},
	}
	b, err := json.Marshal(it)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "staging", "filesystem paths never reach the wire")
	assert.Contains(t, string(b), `"fileName":"a.png"`)
}

func TestSecondPickReplacesPendingCandidate(t *testing.T) {
	store := newFakeStore()
	m := media.NewManager(store, 5, 1024)
	m.Open()

	_, err := m.AddFiles(1, []media.Upload{pngUpload("first.png")})
	require.NoError(t, err)
	first := m.Pending()
	require.NotNil(t, first)

	_, err = m.AddFiles(1, []media.Upload{pngUpload("second.png")})
	require.NoError(t, err)

	second := m.Pending()
	require.NotNil(t, second)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 1, store.releases[first.ID], "replaced candidate handle released once")
	assert.Zero(t, store.releases[second.ID])
}

func TestPerColorCap(t *testing.T) {
	store := newFakeStore()
	m := media.NewManager(store, 5, 1024)
	m.Open()

	var uploads []media.Upload
	for i := 0; i < 6; i++ {
		uploads = append(uploads, pngUpload(fmt.Sprintf("f%d.png", i)))
	}
	report, err := m.AddFiles(1, uploads)
	require.NoError(t, err)
	assert.Equal(t, 6, report.Queued)

	accepted := 0
	var capErr error
	for i := 0; i < 6; i++ {
		if _, err := m.Accept(); err != nil {
			capErr = err
			continue
		}
		accepted++
	}

	assert.Equal(t, 5, accepted)
	require.ErrorIs(t, capErr, media.ErrColorFull)
	assert.Len(t, m.Draft()[1], 5)
	assert.Equal(t, 1, store.totalReleases(), "rejected candidate handle released")
}

func TestSaveBlockedWhilePending(t *testing.T) {
	m := media.NewManager(newFakeStore(), 5, 1024)
	m.Open()

	_, err := m.AddFiles(1, []media.Upload{pngUpload("a.png")})
	require.NoError(t, err)

	assert.ErrorIs(t, m.SaveChanges(), media.ErrCandidatePending)
	assert.True(t, m.IsOpen())
}

func TestDiscardReleasesOnlyDraftHandles(t *testing.T) {
	store := newFakeStore()
	m := media.NewManager(store, 5, 1024)

	// commit one image first
	m.Open()
	addAndAccept(t, m, 1, "committed.png")
	require.NoError(t, m.SaveChanges())
	committedID := m.Committed()[1][0].ID

	// new round: add two more, then discard
	m.Open()
	addAndAccept(t, m, 1, "d1.png", "d2.png")
	require.NoError(t, m.DiscardAll())

	assert.Zero(t, store.releases[committedID], "committed handle must survive discard")
	assert.Equal(t, 2, store.totalReleases())
	assert.Len(t, m.Committed()[1], 1)
	assert.False(t, m.IsOpen())
}

func TestSaveReleasesDroppedCommittedHandles(t *testing.T) {
	store := newFakeStore()
	m := media.NewManager(store, 5, 1024)

	m.Open()
	addAndAccept(t, m, 1, "keep.png", "drop.png")
	require.NoError(t, m.SaveChanges())

	dropID := m.Committed()[1][1].ID
	m.Open()
	require.NoError(t, m.RemoveFromDraft(1, dropID))
	assert.Zero(t, store.releases[dropID], "still committed, not released on draft removal")

	require.NoError(t, m.SaveChanges())
	assert.Equal(t, 1, store.releases[dropID])
	assert.Len(t, m.Committed()[1], 1)
}

func TestRemoveDraftOnlyItemReleasesImmediately(t *testing.T) {
	store := newFakeStore()
	m := media.NewManager(store, 5, 1024)
	m.Open()
	addAndAccept(t, m, 1, "new.png")

	id := m.Draft()[1][0].ID
	require.NoError(t, m.RemoveFromDraft(1, id))
	assert.Equal(t, 1, store.releases[id])
}

func TestReleaseAllIsExactlyOncePerHandle(t *testing.T) {
	store := newFakeStore()
	m := media.NewManager(store, 5, 1024)

	m.Open()
	addAndAccept(t, m, 1, "a.png", "b.png")
	require.NoError(t, m.SaveChanges())

	// reopen so the same handles live in both committed and draft,
	// plus one pending candidate
	m.Open()
	_, err := m.AddFiles(2, []media.Upload{pngUpload("c.png")})
	require.NoError(t, err)

	m.ReleaseAll()

	assert.Equal(t, 3, store.totalReleases())
	for id, n := range store.releases {
		assert.Equalf(t, 1, n, "handle %s released more than once", id)
	}
}
