// Package dicom provides DICOM Part 10 file parsing.
//
// This is the root package containing the primary Dataset type and the
// streaming parser built around it.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html
package dicom

import (
	"fmt"
	"strings"

	"github.com/codeninja55/dcmflow/dicom/element"
	"github.com/codeninja55/dcmflow/dicom/tag"
	"github.com/codeninja55/dcmflow/dicom/value"
	"github.com/codeninja55/dcmflow/internal/arena"
)

// Dataset is an ordered forest of elements keyed by tag. A root
// Dataset owns an arena handle and the list of nested datasets reachable
// through its sequence-valued elements; disposing it recursively disposes
// every nested dataset and returns every arena block it registered to its
// origin pool.
//
// A Dataset must be disposed exactly once. Any ByteView obtained from it
// (directly, or from a nested dataset) is undefined after disposal — it
// aliases memory that may already have been handed to another parse.
type Dataset struct {
	table     *arena.Table
	tablePool *arena.TablePool
	elements  []*element.Element // parallel to table.Order

	nested   []*Dataset
	blocks   []*arena.Block
	disposed bool

	transferSyntax TransferSyntax
}

// TransferSyntax reports the wire encoding detected for this parse: the
// transfer syntax UID found in the file meta group (empty if the input had
// no file meta group at all), whether the main dataset used Explicit VR,
// and whether it was DEFLATE-compressed.
func (d *Dataset) TransferSyntax() TransferSyntax {
	return d.transferSyntax
}

// newDataset creates an empty Dataset backed by a table rented from pool.
func newDataset(pool *arena.TablePool) *Dataset {
	return &Dataset{
		table:     pool.Rent(),
		tablePool: pool,
	}
}

// newRootDataset creates the top-level Dataset a parse returns.
func newRootDataset(pools *arena.TablePools) *Dataset {
	return newDataset(pools.Root)
}

// newItemDataset creates a Dataset for one sequence item.
func newItemDataset(pools *arena.TablePools) *Dataset {
	return newDataset(pools.Item)
}

// add inserts elem under tag t, enforcing one tag per dataset level. The
// group-length pseudo-element (element 0x0000) is silently discarded
// rather than stored. This is parser-internal; external callers only ever
// read a Dataset.
func (d *Dataset) add(t tag.Tag, elem *element.Element) error {
	if t.IsGroupLength() {
		return nil
	}
	if _, exists := d.table.Items[t]; exists {
		return fmt.Errorf("duplicate tag %s at this dataset level", t)
	}
	idx := len(d.table.Order)
	d.table.Order = append(d.table.Order, t)
	d.table.Items[t] = idx
	d.elements = append(d.elements, elem)
	return nil
}

// registerBlock records an arena block as owned by this dataset, to be
// released on Dispose.
func (d *Dataset) registerBlock(b *arena.Block) {
	d.blocks = append(d.blocks, b)
}

// registerNested records a child dataset (reached through a sequence item)
// as owned by this dataset, to be disposed recursively on Dispose.
func (d *Dataset) registerNested(child *Dataset) {
	d.nested = append(d.nested, child)
}

// GetRaw returns the value slice for tag t if present and its content is
// raw bytes; ok is false for a missing tag, or one whose content is a
// sequence or fragment list.
func (d *Dataset) GetRaw(t tag.Tag) (view value.ByteView, ok bool) {
	idx, found := d.table.Items[t]
	if !found {
		return value.ByteView{}, false
	}
	return d.elements[idx].Content().Raw()
}

// GetSequence returns the nested datasets for tag t if present and its
// content is a sequence; ok is false otherwise.
func (d *Dataset) GetSequence(t tag.Tag) (items []*Dataset, ok bool) {
	idx, found := d.table.Items[t]
	if !found {
		return nil, false
	}
	raw, isSeq := d.elements[idx].Content().Items()
	if !isSeq {
		return nil, false
	}
	out := make([]*Dataset, 0, len(raw))
	for _, ds := range raw {
		if cast, ok := ds.(*Dataset); ok {
			out = append(out, cast)
		}
	}
	return out, true
}

// GetFragments returns the fragment list for tag t if present and its
// content is a fragment list (encapsulated pixel data); ok is false
// otherwise.
func (d *Dataset) GetFragments(t tag.Tag) (frags []value.ByteView, ok bool) {
	idx, found := d.table.Items[t]
	if !found {
		return nil, false
	}
	return d.elements[idx].Content().Fragments()
}

// Get returns the element stored at tag t, for callers that need the VR or
// full content union rather than one specific accessor.
func (d *Dataset) Get(t tag.Tag) (*element.Element, bool) {
	idx, found := d.table.Items[t]
	if !found {
		return nil, false
	}
	return d.elements[idx], true
}

// Len returns the number of elements at this dataset level.
func (d *Dataset) Len() int {
	return len(d.table.Order)
}

// Tags returns the tags at this dataset level in insertion order, which
// matches the byte order of each tag's first occurrence in the input.
func (d *Dataset) Tags() []tag.Tag {
	out := make([]tag.Tag, len(d.table.Order))
	copy(out, d.table.Order)
	return out
}

// Elements returns the elements at this dataset level in insertion order.
func (d *Dataset) Elements() []*element.Element {
	out := make([]*element.Element, len(d.elements))
	copy(out, d.elements)
	return out
}

// String returns a human-readable summary of the dataset.
func (d *Dataset) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Dataset with %d element(s)", d.Len())
	for _, e := range d.elements {
		sb.WriteString("\n  ")
		sb.WriteString(e.String())
	}
	return sb.String()
}

// Dispose recursively disposes every nested sequence-item dataset, returns
// every registered arena block to its pool, and returns this dataset's own
// table to the tables pool. Dispose is idempotent.
func (d *Dataset) Dispose() {
	if d.disposed {
		return
	}
	d.disposed = true

	for _, child := range d.nested {
		child.Dispose()
	}
	for _, b := range d.blocks {
		b.Release()
	}
	if d.tablePool != nil {
		d.tablePool.Return(d.table)
	}
	d.table = nil
	d.elements = nil
	d.nested = nil
	d.blocks = nil
}
