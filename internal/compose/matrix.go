package compose

import "fmt"

// Field names accepted by SetField / ApplyToAll, matching the wire names the
// upstream API uses for variant rows.
const (
	FieldPrice = "precio"
	FieldStock = "stock"
)

// VariantKey is the stable identity of one color×size combination across
// regenerations of the matrix.
type VariantKey struct {
	ColorID int64 `json:"colorId"`
	SizeID  int64 `json:"tallaId"`
}

// VariantValues keeps price and stock as the raw text the operator typed.
// Parsing happens at save time only.
type VariantValues struct {
	Price string `json:"precio"`
	Stock string `json:"stock"`
}

// Matrix derives the visible variant rows from a Selection: the Cartesian
// product of selected colors × sizes, minus the exclusion set. Rows are pure
// derived state, recomputed on demand and never stored.
type Matrix struct {
	values   map[VariantKey]VariantValues
	excluded map[VariantKey]struct{}
}

func NewMatrix() *Matrix {
	return &Matrix{
		values:   make(map[VariantKey]VariantValues),
		excluded: make(map[VariantKey]struct{}),
	}
}

// Keys returns the current combination set in render order (colors outer,
// sizes inner, both in selection order).
func (m *Matrix) Keys(sel *Selection) []VariantKey {
	var keys []VariantKey
	for _, colorID := range sel.ColorIDs() {
		for _, sizeID := range sel.SizeIDs() {
			k := VariantKey{ColorID: colorID, SizeID: sizeID}
			if _, gone := m.excluded[k]; gone {
				continue
			}
			keys = append(keys, k)
		}
	}
	return keys
}

// Values returns the editable values for a key, defaulting to empty strings
// for combinations the operator never touched.
func (m *Matrix) Values(k VariantKey) VariantValues {
	return m.values[k]
}

// SetField upserts one field of one row without touching the others.
func (m *Matrix) SetField(k VariantKey, field, value string) error {
	v := m.values[k]
	switch field {
	case FieldPrice:
		v.Price = value
	case FieldStock:
		v.Stock = value
	default:
		return fmt.Errorf("unknown variant field %q", field)
	}
	m.values[k] = v
	return nil
}

// ApplyToAll overwrites one field on every row currently in the matrix.
// A no-op when the matrix is empty.
func (m *Matrix) ApplyToAll(sel *Selection, field, value string) error {
	for _, k := range m.Keys(sel) {
		if err := m.SetField(k, field, value); err != nil {
			return err
		}
	}
	return nil
}

// Remove excludes one combination, then prunes the selection down to the
// color/size ids that still have at least one remaining combination. Removing
// the sole surviving row of a color (or size) therefore deselects it, which
// in turn drops the exclusions that referenced it, so re-selecting it later
// restores all of its combinations.
func (m *Matrix) Remove(sel *Selection, k VariantKey) {
	if !sel.HasColor(k.ColorID) || !sel.HasSize(k.SizeID) {
		return
	}
	m.excluded[k] = struct{}{}

	keepColors := make(map[int64]struct{})
	keepSizes := make(map[int64]struct{})
	for _, key := range m.Keys(sel) {
		keepColors[key.ColorID] = struct{}{}
		keepSizes[key.SizeID] = struct{}{}
	}
	sel.retain(keepColors, keepSizes)
	m.pruneExclusions(sel)
}

// PruneExclusions drops exclusion entries whose color or size left the
// selection. Called after every selection change to keep the invariant that
// an exclusion key always references selected ids.
func (m *Matrix) PruneExclusions(sel *Selection) {
	m.pruneExclusions(sel)
}

func (m *Matrix) pruneExclusions(sel *Selection) {
	for k := range m.excluded {
		if !sel.HasColor(k.ColorID) || !sel.HasSize(k.SizeID) {
			delete(m.excluded, k)
		}
	}
}
