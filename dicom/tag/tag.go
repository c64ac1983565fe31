// Package tag defines DICOM element tags and tag-related operations.
//
// A Tag represents a DICOM data element identifier as defined in the DICOM standard.
// See https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1
// and https://dicom.nema.org/medical/dicom/current/output/html/part06.html#chapter_6
package tag

import (
	"fmt"
	"strings"

	"github.com/codeninja55/dcmflow/dicom/vr"
)

const (
	// MetadataGroup is the group number for DICOM file meta information elements.
	// See https://dicom.nema.org/medical/dicom/current/output/html/part10.html#sect_7.1
	MetadataGroup = 0x0002

	// ItemGroup is the group number carrying the sequence/fragment delimiter tags.
	ItemGroup = 0xFFFE
)

// Well-known item-group delimiter tags. These have no VR and no 2-byte
// padding in either transfer syntax — the parser recognises them by tag
// alone before ever consulting the VR machinery.
var (
	Item                 = New(ItemGroup, 0xE000)
	ItemDelimitation     = New(ItemGroup, 0xE00D)
	SequenceDelimitation = New(ItemGroup, 0xE0DD)

	// GroupLengthElement is the element number that marks a group-length
	// pseudo-element (gggg,0000). Such elements are discarded rather than
	// stored — see Dataset.add.
	GroupLengthElement uint16 = 0x0000

	// TransferSyntaxUID is (0002,0010), the file meta element whose value
	// selects the encoding of the remainder of the stream.
	TransferSyntaxUID = New(MetadataGroup, 0x0010)

	// FileMetaGroupLength is (0002,0000).
	FileMetaGroupLength = New(MetadataGroup, 0x0000)
)

// Tag represents a DICOM element tag as a (group, element) pair.
// Tags are used to uniquely identify elements within a DICOM dataset.
//
// According to the DICOM standard Part 5, Section 7.1:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1
//   - Group numbers with an odd value are used for private elements
//   - Group 0x0002 is reserved for file meta information
//   - Tags are ordered first by group, then by element
type Tag struct {
	Group   uint16
	Element uint16
}

// New creates a new Tag with the specified group and element numbers.
func New(group, element uint16) Tag {
	return Tag{Group: group, Element: element}
}

// Equals returns true if this tag equals the provided tag.
func (t Tag) Equals(other Tag) bool {
	return t.Group == other.Group && t.Element == other.Element
}

// Compare returns -1, 0, or 1 if t < other, t == other, or t > other, respectively.
// Tags are ordered first by group, then by element as specified in the DICOM standard.
func (t Tag) Compare(other Tag) int {
	if t.Equals(other) {
		return 0
	}
	if t.Uint32() < other.Uint32() {
		return -1
	}
	return 1
}

// String returns a string representation of the tag in the format "(GGGG,EEEE)".
func (t Tag) String() string {
	return fmt.Sprintf("(%04X,%04X)", t.Group, t.Element)
}

// Uint32 returns the tag as a uint32 value, group in the upper 16 bits.
func (t Tag) Uint32() uint32 {
	return (uint32(t.Group) << 16) | uint32(t.Element)
}

// IsPrivate returns true if this tag represents a private element.
func (t Tag) IsPrivate() bool {
	return t.Group%2 == 1
}

// IsMetaElement returns true if this tag is part of the file meta-information group (0x0002).
func (t Tag) IsMetaElement() bool {
	return t.Group == MetadataGroup
}

// IsGroupLength returns true if this tag is the group-length pseudo-element
// of whatever group it belongs to.
func (t Tag) IsGroupLength() bool {
	return t.Element == GroupLengthElement
}

// Parse parses a tag string in the format "(GGGG,EEEE)" or "GGGG,EEEE".
func Parse(s string) (Tag, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")

	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Tag{}, fmt.Errorf("invalid tag format: %q, expected (GGGG,EEEE)", s)
	}

	var group, element uint16
	if _, err := fmt.Sscanf(strings.TrimSpace(parts[0]), "%x", &group); err != nil {
		return Tag{}, fmt.Errorf("invalid group number: %w", err)
	}
	if _, err := fmt.Sscanf(strings.TrimSpace(parts[1]), "%x", &element); err != nil {
		return Tag{}, fmt.Errorf("invalid element number: %w", err)
	}

	return New(group, element), nil
}

// Info stores detailed information about a Tag defined in the DICOM standard.
type Info struct {
	Tag Tag
	// VRs lists the possible data encodings for this tag; at least one entry.
	VRs []vr.VR
	// Name is the human-readable name of the tag, e.g. "Pixel Data".
	Name string
	// Keyword is the identifier form of Name, e.g. "PixelData".
	Keyword string
}

// Find returns information about the given tag from the data dictionary.
//
// The dictionary here is a small, illustrative subset — this package treats
// the full DICOM tag dictionary as an opaque external lookup (out of scope
// for this module) and only carries the handful of tags this repo's tests
// and documentation exercise.
//
// Special case: for even-numbered groups with element 0x0000, returns a
// synthetic GenericGroupLength entry (VR=UL), matching the standard's
// (gggg,0000) convention.
func Find(t Tag) (Info, error) {
	if info, ok := TagDict[t]; ok {
		return info, nil
	}
	if t.Group%2 == 0 && t.Element == 0x0000 {
		return Info{
			Tag:     t,
			VRs:     []vr.VR{vr.UnsignedLong},
			Name:    "Generic Group Length",
			Keyword: "GenericGroupLength",
		}, nil
	}
	return Info{}, fmt.Errorf("tag %s not found in dictionary", t.String())
}

// FindByKeyword searches for a tag by its keyword or name field.
func FindByKeyword(keyword string) (Info, error) {
	if keyword == "" {
		return Info{}, fmt.Errorf("keyword cannot be empty")
	}
	for _, info := range TagDict {
		if info.Keyword == keyword || info.Name == keyword {
			return info, nil
		}
	}
	return Info{}, fmt.Errorf("tag with keyword %q not found in dictionary", keyword)
}
