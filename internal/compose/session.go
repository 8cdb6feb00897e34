package compose

import (
	"sync"
	"sync/atomic"
	"time"

	"mostrador/internal/catalog"
	"mostrador/internal/media"
)

// Row is a materialized, renderable variant: always derived from selection ×
// values × exclusions, never stored independently.
type Row struct {
	Key   VariantKey      `json:"key"`
	Color catalog.Entity  `json:"color"`
	Size  catalog.Entity  `json:"talla"`
	Price string          `json:"precio"`
	Stock string          `json:"stock"`
}

// Session is one product composition in progress. The original surface is a
// single-threaded event loop; here a mutex serializes mutations so they apply
// in the order the UI issued them.
type Session struct {
	mu     sync.Mutex
	code   string
	last   time.Time
	sel    Selection
	matrix *Matrix
	media  *media.Manager
	cache  *catalog.Cache
	saving atomic.Bool
}

func newSession(code string, cache *catalog.Cache, mgr *media.Manager) *Session {
	return &Session{
		code:   code,
		last:   time.Now(),
		matrix: NewMatrix(),
		media:  mgr,
		cache:  cache,
	}
}

func (s *Session) Code() string { return s.code }

func (s *Session) touch() {
	s.mu.Lock()
	s.last = time.Now()
	s.mu.Unlock()
}

func (s *Session) lastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// ToggleColor flips a color selection and keeps the exclusion set consistent
// with the new selection.
func (s *Session) ToggleColor(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	selected := s.sel.ToggleColor(id)
	s.matrix.PruneExclusions(&s.sel)
	return selected
}

func (s *Session) ToggleSize(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	selected := s.sel.ToggleSize(id)
	s.matrix.PruneExclusions(&s.sel)
	return selected
}

func (s *Session) FocusColor(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.FocusColor(id)
}

// Rows recomputes and materializes the visible variant rows.
func (s *Session) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rowsLocked()
}

func (s *Session) rowsLocked() []Row {
	keys := s.matrix.Keys(&s.sel)
	rows := make([]Row, 0, len(keys))
	for _, k := range keys {
		v := s.matrix.Values(k)
		rows = append(rows, Row{
			Key:   k,
			Color: s.cache.ColorRef(k.ColorID),
			Size:  s.cache.SizeRef(k.SizeID),
			Price: v.Price,
			Stock: v.Stock,
		})
	}
	return rows
}

func (s *Session) SetField(k VariantKey, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matrix.SetField(k, field, value)
}

func (s *Session) ApplyToAll(field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matrix.ApplyToAll(&s.sel, field, value)
}

func (s *Session) RemoveRow(k VariantKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matrix.Remove(&s.sel, k)
}

// --- media editor, serialized through the session lock ---

func (s *Session) OpenMedia() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.media.Open()
}

func (s *Session) AddMediaFiles(colorID int64, uploads []media.Upload) (media.BatchReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.media.AddFiles(colorID, uploads)
}

func (s *Session) AcceptCandidate() (media.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.media.Accept()
}

func (s *Session) CancelCandidate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.media.Cancel()
}

func (s *Session) RemoveMedia(colorID int64, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.media.RemoveFromDraft(colorID, itemID)
}

func (s *Session) DiscardMedia() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.media.DiscardAll()
}

func (s *Session) SaveMedia() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.media.SaveChanges()
}

func (s *Session) LookupMedia(itemID string) (media.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.media.Lookup(itemID)
}

// State is the full session view the UI renders from.
type State struct {
	Code       string                 `json:"codigo"`
	Colors     []catalog.Entity       `json:"colores"`
	Sizes      []catalog.Entity       `json:"tallas"`
	FocusedID  int64                  `json:"colorEnfocado,omitempty"`
	Rows       []Row                  `json:"variantes"`
	Media      map[int64][]media.Item `json:"imagenes"`
	Draft      map[int64][]media.Item `json:"imagenesBorrador,omitempty"`
	EditorOpen bool                   `json:"editorAbierto"`
	Pending    *media.Item            `json:"candidatoPendiente,omitempty"`
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Code:       s.code,
		Colors:     s.resolveLocked(s.sel.ColorIDs(), s.cache.ColorRef),
		Sizes:      s.resolveLocked(s.sel.SizeIDs(), s.cache.SizeRef),
		FocusedID:  s.sel.FocusedColorID(),
		Rows:       s.rowsLocked(),
		Media:      s.media.Committed(),
		Draft:      s.media.Draft(),
		EditorOpen: s.media.IsOpen(),
		Pending:    s.media.Pending(),
	}
}

func (s *Session) resolveLocked(ids []int64, ref func(int64) catalog.Entity) []catalog.Entity {
	out := make([]catalog.Entity, 0, len(ids))
	for _, id := range ids {
		out = append(out, ref(id))
	}
	return out
}

// Snapshot captures a consistent copy for the save transaction. Media bytes
// are pinned into memory under the lock, so a concurrent media round that
// releases a committed handle mid-save never invalidates what the save
// already observed.
type Snapshot struct {
	Colors      []catalog.Entity
	Sizes       []catalog.Entity
	Rows        []Row
	Media       map[int64][]media.Item
	Files       map[int64][]media.FileData
	MaxPerColor int
}

func (s *Session) Snapshot() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	files, err := s.media.PinCommitted()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Colors:      s.resolveLocked(s.sel.ColorIDs(), s.cache.ColorRef),
		Sizes:       s.resolveLocked(s.sel.SizeIDs(), s.cache.SizeRef),
		Rows:        s.rowsLocked(),
		Media:       s.media.Committed(),
		Files:       files,
		MaxPerColor: s.media.MaxPerColor(),
	}, nil
}

// beginSave claims the single save slot; a second concurrent attempt is
// turned away rather than queued.
func (s *Session) beginSave() bool { return s.saving.CompareAndSwap(false, true) }
func (s *Session) endSave()        { s.saving.Store(false) }

// Close releases every staged media handle the session still owns.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.media.ReleaseAll()
}
