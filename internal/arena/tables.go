package arena

import "github.com/codeninja55/dcmflow/dicom/tag"

// TableKind distinguishes the two dataset shapes that get their own pool:
// root datasets (one per parse, large) and sequence-item datasets (many
// per parse, small).
type TableKind int

const (
	// RootTable backs a parse's top-level Dataset. Capacity hint: 256 entries.
	RootTable TableKind = iota
	// ItemTable backs a Dataset nested inside a sequence item. Capacity hint: 16 entries.
	ItemTable
)

// Table is the reusable backing storage for a Dataset: an insertion-order
// tag slice plus the tag-keyed lookup map, returned to its pool together so
// a disposed dataset's memory can be reused for the next one.
type Table struct {
	Order []tag.Tag
	Items map[tag.Tag]int // tag -> index into a parallel element slice owned by Dataset
	kind  TableKind
}

// Reset clears the table for reuse without discarding its backing arrays'
// capacity.
func (t *Table) Reset() {
	t.Order = t.Order[:0]
	for k := range t.Items {
		delete(t.Items, k)
	}
}

// TablePool is a fixed-capacity free list of Tables of one TableKind.
type TablePool struct {
	kind        TableKind
	capHint     int
	free        chan *Table
}

// NewTablePool creates a pool of tables sized for capHint entries,
// retaining at most maxRetained returned tables.
func NewTablePool(kind TableKind, capHint, maxRetained int) *TablePool {
	return &TablePool{kind: kind, capHint: capHint, free: make(chan *Table, maxRetained)}
}

// Rent returns a cleared Table, reusing one from the free list when
// available.
func (p *TablePool) Rent() *Table {
	select {
	case t := <-p.free:
		t.Reset()
		return t
	default:
	}
	return &Table{
		Order: make([]tag.Tag, 0, p.capHint),
		Items: make(map[tag.Tag]int, p.capHint),
		kind:  p.kind,
	}
}

// Return releases a table back to its origin pool. Over-cap returns are
// dropped.
func (p *TablePool) Return(t *Table) {
	if t == nil || t.kind != p.kind {
		return
	}
	select {
	case p.free <- t:
	default:
	}
}

// TablePools bundles the root/item dataset table pools: root (256-entry
// hint, 64 retained) and item (16-entry hint, 256 retained).
type TablePools struct {
	Root *TablePool
	Item *TablePool
}

// DefaultTablePools returns pools sized with the defaults above.
func DefaultTablePools() *TablePools {
	return &TablePools{
		Root: NewTablePool(RootTable, 256, 64),
		Item: NewTablePool(ItemTable, 16, 256),
	}
}
