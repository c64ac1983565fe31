// Package value provides the value representations stored inside a parsed
// DICOM element.
//
// Values are never decoded into typed strings/ints/floats the way a full
// DICOM toolkit would; every element's content is one of three shapes: raw
// bytes, an ordered list of fragment byte runs, or an ordered list of
// nested datasets.
package value

import (
	"bytes"
	"fmt"
)

// ByteView is a read-only view into a byte slice owned by an arena block.
// It must not be retained past the disposal of the Dataset that produced it.
type ByteView struct {
	data []byte
}

// NewByteView wraps a byte slice as a ByteView. The slice is not copied;
// callers pass a window directly into an arena block.
func NewByteView(data []byte) ByteView {
	return ByteView{data: data}
}

// Bytes returns the underlying slice.
func (v ByteView) Bytes() []byte { return v.data }

// Len returns the number of bytes in the view.
func (v ByteView) Len() int { return len(v.data) }

// Equal reports whether two views have identical contents.
func (v ByteView) Equal(other ByteView) bool {
	return bytes.Equal(v.data, other.data)
}

// Kind identifies which of the three ItemContent shapes a Content holds.
type Kind int

const (
	// Raw holds a single ByteView.
	Raw Kind = iota
	// FragmentList holds an ordered list of ByteViews (encapsulated pixel
	// data fragments).
	FragmentList
	// SequenceItems holds an ordered list of nested datasets.
	SequenceItems
)

// Dataset is the minimal interface Content needs from a nested dataset,
// kept abstract here to avoid an import cycle with the dicom package that
// defines the concrete Dataset type.
type Dataset interface {
	fmt.Stringer
}

// Content is a tagged union: exactly one of Raw, Fragments, or Items is
// populated, selected by Kind.
type Content struct {
	Kind Kind

	raw       ByteView
	fragments []ByteView
	items     []Dataset
}

// NewRaw builds a Raw-kind Content.
func NewRaw(v ByteView) Content {
	return Content{Kind: Raw, raw: v}
}

// NewFragments builds a FragmentList-kind Content.
func NewFragments(frags []ByteView) Content {
	return Content{Kind: FragmentList, fragments: frags}
}

// NewSequence builds a SequenceItems-kind Content.
func NewSequence(items []Dataset) Content {
	return Content{Kind: SequenceItems, items: items}
}

// Raw returns the raw byte view and true if Kind == Raw.
func (c Content) Raw() (ByteView, bool) {
	if c.Kind != Raw {
		return ByteView{}, false
	}
	return c.raw, true
}

// Fragments returns the fragment list and true if Kind == FragmentList.
func (c Content) Fragments() ([]ByteView, bool) {
	if c.Kind != FragmentList {
		return nil, false
	}
	return c.fragments, true
}

// Items returns the nested sequence datasets and true if Kind == SequenceItems.
func (c Content) Items() ([]Dataset, bool) {
	if c.Kind != SequenceItems {
		return nil, false
	}
	return c.items, true
}

// String returns a short human-readable summary of the content.
func (c Content) String() string {
	switch c.Kind {
	case Raw:
		return fmt.Sprintf("raw(%d bytes)", c.raw.Len())
	case FragmentList:
		return fmt.Sprintf("fragments(%d)", len(c.fragments))
	case SequenceItems:
		return fmt.Sprintf("sequence(%d items)", len(c.items))
	default:
		return "unknown"
	}
}
