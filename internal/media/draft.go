package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	ErrEditorClosed     = errors.New("media editor is not open")
	ErrNoCandidate      = errors.New("no image is awaiting confirmation")
	ErrCandidatePending = errors.New("an image is still awaiting confirmation")
	ErrColorFull        = errors.New("maximum number of images for this color reached")
)

// Item is one staged image belonging to a color. The handle is server-side
// state; clients see only the id and fetch previews through their own route.
type Item struct {
	ID       string  `json:"id"`
	ColorID  int64   `json:"colorId"`
	FileName string  `json:"fileName"`
	Handle   *Handle `json:"-"`
}

// Upload is a file as it arrives from a multipart form.
type Upload struct {
	Name string
	Size int64
	R    io.Reader
}

// BatchReport summarizes one AddFiles call. Each rejection kind is reported
// once per batch regardless of how many files tripped it.
type BatchReport struct {
	Queued    int      `json:"queued"`
	Rejected  int      `json:"rejected"`
	Rejection []string `json:"rejections,omitempty"`
}

// Manager holds the committed per-color image lists plus, while the editor is
// open, a freely editable draft copy and a single-slot pending candidate.
//
// It is not safe for concurrent use; the owning session serializes access.
type Manager struct {
	store       HandleStore
	maxPerColor int
	maxBytes    int64

	committed map[int64][]Item
	draft     map[int64][]Item
	open      bool
	pending   *Item
	backlog   []Item
}

func NewManager(store HandleStore, maxPerColor int, maxBytes int64) *Manager {
	return &Manager{
		store:       store,
		maxPerColor: maxPerColor,
		maxBytes:    maxBytes,
		committed:   make(map[int64][]Item),
	}
}

func (m *Manager) IsOpen() bool { return m.open }

func (m *Manager) MaxPerColor() int { return m.maxPerColor }

// Open starts an editing round over a clone of the committed state. Opening
// an already open editor is a no-op.
func (m *Manager) Open() {
	if m.open {
		return
	}
	m.draft = cloneByColor(m.committed)
	m.open = true
}

// AddFiles validates a batch and queues the valid files as candidates. Only
// one candidate is ever alive: the first valid file of the batch takes the
// slot (releasing whatever was queued before), the rest wait behind it and
// are promoted one at a time as the user accepts or cancels.
func (m *Manager) AddFiles(colorID int64, uploads []Upload) (BatchReport, error) {
	if !m.open {
		return BatchReport{}, ErrEditorClosed
	}

	var (
		report   BatchReport
		staged   []Item
		badType  bool
		badSize  bool
	)
	for _, up := range uploads {
		if m.maxBytes > 0 && up.Size > m.maxBytes {
			badSize = true
			report.Rejected++
			continue
		}
		head := make([]byte, 512)
		n, err := io.ReadFull(up.R, head)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			m.releaseStaged(staged)
			return report, fmt.Errorf("read %s: %w", up.Name, err)
		}
		if !strings.HasPrefix(http.DetectContentType(head[:n]), "image/") {
			badType = true
			report.Rejected++
			continue
		}
		h, err := m.store.Create(up.Name, io.MultiReader(bytes.NewReader(head[:n]), up.R))
		if err != nil {
			m.releaseStaged(staged)
			return report, fmt.Errorf("stage %s: %w", up.Name, err)
		}
		staged = append(staged, Item{ID: h.ID, ColorID: colorID, FileName: up.Name, Handle: h})
	}

	if badType {
		report.Rejection = append(report.Rejection, "solo se permiten archivos de imagen")
	}
	if badSize {
		report.Rejection = append(report.Rejection,
			fmt.Sprintf("las imágenes no pueden superar %d MB", m.maxBytes/(1024*1024)))
	}

	if len(staged) > 0 {
		// a fresh pick replaces the whole queue
		m.releaseQueue()
		first := staged[0]
		m.pending = &first
		m.backlog = append([]Item(nil), staged[1:]...)
		report.Queued = len(staged)
	}
	return report, nil
}

// Pending returns the candidate currently awaiting confirmation, or nil.
func (m *Manager) Pending() *Item {
	if m.pending == nil {
		return nil
	}
	it := *m.pending
	return &it
}

// Accept merges the pending candidate into its color's draft list and
// promotes the next queued file. A full color rejects the candidate and
// releases its handle.
func (m *Manager) Accept() (Item, error) {
	if !m.open {
		return Item{}, ErrEditorClosed
	}
	if m.pending == nil {
		return Item{}, ErrNoCandidate
	}
	cand := *m.pending
	m.promote()

	if len(m.draft[cand.ColorID]) >= m.maxPerColor {
		_ = m.store.Release(cand.Handle)
		return Item{}, fmt.Errorf("%w (máximo %d)", ErrColorFull, m.maxPerColor)
	}
	m.draft[cand.ColorID] = append(m.draft[cand.ColorID], cand)
	return cand, nil
}

// Cancel discards the pending candidate, releasing its handle.
func (m *Manager) Cancel() error {
	if !m.open {
		return ErrEditorClosed
	}
	if m.pending == nil {
		return ErrNoCandidate
	}
	_ = m.store.Release(m.pending.Handle)
	m.promote()
	return nil
}

// RemoveFromDraft drops an item from the open draft. Draft-only items lose
// their handle immediately; items still present in the committed state keep
// theirs until SaveChanges decides their fate.
func (m *Manager) RemoveFromDraft(colorID int64, itemID string) error {
	if !m.open {
		return ErrEditorClosed
	}
	list := m.draft[colorID]
	for i, it := range list {
		if it.ID != itemID {
			continue
		}
		m.draft[colorID] = append(list[:i:i], list[i+1:]...)
		if _, ok := m.committedIDs()[itemID]; !ok {
			_ = m.store.Release(it.Handle)
		}
		return nil
	}
	return fmt.Errorf("image %s not found for color %d", itemID, colorID)
}

// DiscardAll closes the editor, reverting to the committed state. Every
// handle added since Open is released; committed handles stay intact.
func (m *Manager) DiscardAll() error {
	if !m.open {
		return ErrEditorClosed
	}
	m.releaseQueue()
	committed := m.committedIDs()
	for _, list := range m.draft {
		for _, it := range list {
			if _, ok := committed[it.ID]; !ok {
				_ = m.store.Release(it.Handle)
			}
		}
	}
	m.draft = nil
	m.open = false
	return nil
}

// SaveChanges atomically replaces the committed state with the draft and
// closes the editor. Rejected while a candidate is pending. Handles of
// committed items the user removed during the round are released.
func (m *Manager) SaveChanges() error {
	if !m.open {
		return ErrEditorClosed
	}
	if m.pending != nil {
		return ErrCandidatePending
	}
	kept := make(map[string]struct{})
	for _, list := range m.draft {
		for _, it := range list {
			kept[it.ID] = struct{}{}
		}
	}
	for _, list := range m.committed {
		for _, it := range list {
			if _, ok := kept[it.ID]; !ok {
				_ = m.store.Release(it.Handle)
			}
		}
	}
	m.committed = m.draft
	m.draft = nil
	m.open = false
	return nil
}

// Committed returns a copy of the committed per-color lists.
func (m *Manager) Committed() map[int64][]Item {
	return cloneByColor(m.committed)
}

// FileData is a staged file pinned into memory.
type FileData struct {
	FileName string
	Data     []byte
}

// PinCommitted reads every committed file into memory so the caller holds
// copies that a later handle release cannot invalidate.
func (m *Manager) PinCommitted() (map[int64][]FileData, error) {
	out := make(map[int64][]FileData, len(m.committed))
	for colorID, list := range m.committed {
		files := make([]FileData, 0, len(list))
		for _, it := range list {
			data, err := m.store.Read(it.Handle)
			if err != nil {
				return nil, fmt.Errorf("read staged file %s: %w", it.FileName, err)
			}
			files = append(files, FileData{FileName: it.FileName, Data: data})
		}
		out[colorID] = files
	}
	return out, nil
}

func (m *Manager) CommittedFor(colorID int64) []Item {
	return append([]Item(nil), m.committed[colorID]...)
}

// Draft returns a copy of the open draft, or nil when the editor is closed.
func (m *Manager) Draft() map[int64][]Item {
	if !m.open {
		return nil
	}
	return cloneByColor(m.draft)
}

// Lookup finds an item by id wherever it currently lives: pending candidate,
// open draft, or committed state. Used to serve previews.
func (m *Manager) Lookup(itemID string) (Item, bool) {
	if m.pending != nil && m.pending.ID == itemID {
		return *m.pending, true
	}
	for _, it := range m.backlog {
		if it.ID == itemID {
			return it, true
		}
	}
	for _, list := range m.draft {
		for _, it := range list {
			if it.ID == itemID {
				return it, true
			}
		}
	}
	for _, list := range m.committed {
		for _, it := range list {
			if it.ID == itemID {
				return it, true
			}
		}
	}
	return Item{}, false
}

// ReleaseAll tears the manager down, releasing every live handle exactly
// once regardless of which states currently reference it.
func (m *Manager) ReleaseAll() {
	seen := make(map[string]struct{})
	release := func(it Item) {
		if _, ok := seen[it.ID]; ok {
			return
		}
		seen[it.ID] = struct{}{}
		_ = m.store.Release(it.Handle)
	}
	if m.pending != nil {
		release(*m.pending)
	}
	for _, it := range m.backlog {
		release(it)
	}
	for _, list := range m.draft {
		for _, it := range list {
			release(it)
		}
	}
	for _, list := range m.committed {
		for _, it := range list {
			release(it)
		}
	}
	m.pending = nil
	m.backlog = nil
	m.draft = nil
	m.committed = make(map[int64][]Item)
	m.open = false
}

func (m *Manager) promote() {
	if len(m.backlog) > 0 {
		next := m.backlog[0]
		m.backlog = m.backlog[1:]
		m.pending = &next
		return
	}
	m.pending = nil
}

// releaseStaged reclaims handles staged earlier in an aborted batch; they
// were never queued, so no other state references them.
func (m *Manager) releaseStaged(items []Item) {
	for _, it := range items {
		_ = m.store.Release(it.Handle)
	}
}

func (m *Manager) releaseQueue() {
	if m.pending != nil {
		_ = m.store.Release(m.pending.Handle)
		m.pending = nil
	}
	for _, it := range m.backlog {
		_ = m.store.Release(it.Handle)
	}
	m.backlog = nil
}

func (m *Manager) committedIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	for _, list := range m.committed {
		for _, it := range list {
			ids[it.ID] = struct{}{}
		}
	}
	return ids
}

func cloneByColor(src map[int64][]Item) map[int64][]Item {
	dst := make(map[int64][]Item, len(src))
	for colorID, list := range src {
		dst[colorID] = append([]Item(nil), list...)
	}
	return dst
}
