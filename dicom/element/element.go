// Package element provides the DICOM data element structure stored in a
// parsed Dataset.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1
package element

import (
	"fmt"

	"github.com/codeninja55/dcmflow/dicom/tag"
	"github.com/codeninja55/dcmflow/dicom/value"
	"github.com/codeninja55/dcmflow/dicom/vr"
)

// Element represents a single DICOM data element: a tag, its Value
// Representation, and its content.
type Element struct {
	tag     tag.Tag
	vr      vr.VR
	content value.Content
}

// New creates an Element from its tag, VR, and content.
func New(t tag.Tag, v vr.VR, content value.Content) *Element {
	return &Element{tag: t, vr: v, content: content}
}

// Tag returns the element's DICOM tag.
func (e *Element) Tag() tag.Tag { return e.tag }

// VR returns the element's Value Representation.
func (e *Element) VR() vr.VR { return e.vr }

// Content returns the element's value content.
func (e *Element) Content() value.Content { return e.content }

// Name returns the human-readable name of this element from the data
// dictionary, or "" if the tag is private or unknown.
func (e *Element) Name() string {
	info, err := tag.Find(e.tag)
	if err != nil {
		return ""
	}
	return info.Name
}

// String returns a short human-readable representation of the element.
func (e *Element) String() string {
	name := e.Name()
	if name != "" {
		return fmt.Sprintf("%s %s [%s] = %s", e.tag, e.vr, name, e.content)
	}
	return fmt.Sprintf("%s %s = %s", e.tag, e.vr, e.content)
}
