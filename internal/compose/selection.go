package compose

// Selection holds the ordered sets of selected color and size ids plus the
// color currently focused for media/preview. Insertion order is what the
// variant rows and media sections render in, so it is preserved as-is.
//
// Toggles are total: ids the catalog has never resolved are still recorded.
type Selection struct {
	colorIDs []int64
	sizeIDs  []int64
	focused  int64 // 0 means no focus
}

func (s *Selection) ColorIDs() []int64 { return append([]int64(nil), s.colorIDs...) }
func (s *Selection) SizeIDs() []int64  { return append([]int64(nil), s.sizeIDs...) }

// FocusedColorID returns 0 iff no color is selected.
func (s *Selection) FocusedColorID() int64 { return s.focused }

func (s *Selection) HasColor(id int64) bool { return contains(s.colorIDs, id) }
func (s *Selection) HasSize(id int64) bool  { return contains(s.sizeIDs, id) }

// ToggleColor flips membership and reports whether the id is now selected.
func (s *Selection) ToggleColor(id int64) bool {
	s.colorIDs, _ = toggle(s.colorIDs, id)
	s.reanchorFocus()
	return contains(s.colorIDs, id)
}

func (s *Selection) ToggleSize(id int64) bool {
	s.sizeIDs, _ = toggle(s.sizeIDs, id)
	return contains(s.sizeIDs, id)
}

// FocusColor moves the media/preview focus. Only members of the current
// selection are focusable.
func (s *Selection) FocusColor(id int64) bool {
	if !contains(s.colorIDs, id) {
		return false
	}
	s.focused = id
	return true
}

// retain drops every id not in keep, preserving order. Used by the matrix
// engine's cascading prune after a row removal.
func (s *Selection) retain(keepColors, keepSizes map[int64]struct{}) {
	s.colorIDs = filter(s.colorIDs, keepColors)
	s.sizeIDs = filter(s.sizeIDs, keepSizes)
	s.reanchorFocus()
}

// reanchorFocus keeps the invariant: focus is 0 iff the color selection is
// empty, and otherwise always a member of it. When the focused color goes
// away (or selection just became non-empty) focus snaps to the first color.
func (s *Selection) reanchorFocus() {
	if len(s.colorIDs) == 0 {
		s.focused = 0
		return
	}
	if s.focused == 0 || !contains(s.colorIDs, s.focused) {
		s.focused = s.colorIDs[0]
	}
}

func toggle(ids []int64, id int64) ([]int64, bool) {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...), false
		}
	}
	return append(ids, id), true
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func filter(ids []int64, keep map[int64]struct{}) []int64 {
	out := ids[:0:0]
	for _, v := range ids {
		if _, ok := keep[v]; ok {
			out = append(out, v)
		}
	}
	return out
}
