package dicom_test

import (
	"bytes"
	"compress/flate"
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"testing/iotest"

	"github.com/codeninja55/dcmflow/dicom"
	"github.com/codeninja55/dcmflow/dicom/tag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	explicitVRLittleEndianUID = "1.2.840.10008.1.2.1"
	implicitVRLittleEndianUID = "1.2.840.10008.1.2"
	deflatedVRLittleEndianUID = "1.2.840.10008.1.2.1.99"
	undefinedLen              = 0xFFFFFFFF
)

func u16le(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func u32le(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// explicitShort encodes an element using Explicit VR's 16-bit length form.
func explicitShort(group, elem uint16, vrStr string, val []byte) []byte {
	buf := append(u16le(group), u16le(elem)...)
	buf = append(buf, []byte(vrStr)...)
	buf = append(buf, u16le(uint16(len(val)))...)
	return append(buf, val...)
}

// explicitLong encodes an element using Explicit VR's 32-bit length form
// (2 reserved bytes + 4-byte length), as OB/OW/SQ/UN/etc. require.
func explicitLong(group, elem uint16, vrStr string, length uint32, val []byte) []byte {
	buf := append(u16le(group), u16le(elem)...)
	buf = append(buf, []byte(vrStr)...)
	buf = append(buf, 0, 0)
	buf = append(buf, u32le(length)...)
	return append(buf, val...)
}

func implicitElem(group, elem uint16, val []byte) []byte {
	buf := append(u16le(group), u16le(elem)...)
	buf = append(buf, u32le(uint32(len(val)))...)
	return append(buf, val...)
}

func itemHeader(length uint32) []byte {
	buf := append(u16le(0xFFFE), u16le(0xE000)...)
	return append(buf, u32le(length)...)
}

func itemDelimitation() []byte {
	buf := append(u16le(0xFFFE), u16le(0xE00D)...)
	return append(buf, u32le(0)...)
}

func sequenceDelimitation() []byte {
	buf := append(u16le(0xFFFE), u16le(0xE0DD)...)
	return append(buf, u32le(0)...)
}

func padUID(s string) []byte {
	if len(s)%2 != 0 {
		s += "\x00"
	}
	return []byte(s)
}

func metaGroup(tsUID string) []byte {
	tsElem := explicitShort(0x0002, 0x0010, "UI", padUID(tsUID))
	gl := explicitShort(0x0002, 0x0000, "UL", u32le(uint32(len(tsElem))))
	return append(gl, tsElem...)
}

func buildFile(tsUID string, datasetBytes []byte) []byte {
	buf := make([]byte, 128)
	buf = append(buf, []byte("DICM")...)
	buf = append(buf, metaGroup(tsUID)...)
	return append(buf, datasetBytes...)
}

func TestParse_ExplicitVR_BasicRetrieval(t *testing.T) {
	dataset := explicitShort(0x0010, 0x0010, "PN", []byte("DOE^JOHN"))
	file := buildFile(explicitVRLittleEndianUID, dataset)

	ds, err := dicom.Parse(context.Background(), bytes.NewReader(file))
	require.NoError(t, err)
	defer ds.Dispose()

	view, ok := ds.GetRaw(tag.New(0x0010, 0x0010))
	require.True(t, ok)
	assert.Equal(t, "DOE^JOHN", string(view.Bytes()))
	assert.True(t, ds.TransferSyntax().ExplicitVR)
	assert.Equal(t, explicitVRLittleEndianUID, ds.TransferSyntax().UID)
}

func TestParse_ImplicitVR_BasicRetrieval(t *testing.T) {
	dataset := implicitElem(0x0010, 0x0010, []byte("DOE^JOHN"))
	file := buildFile(implicitVRLittleEndianUID, dataset)

	ds, err := dicom.Parse(context.Background(), bytes.NewReader(file))
	require.NoError(t, err)
	defer ds.Dispose()

	view, ok := ds.GetRaw(tag.New(0x0010, 0x0010))
	require.True(t, ok)
	assert.Equal(t, "DOE^JOHN", string(view.Bytes()))
	assert.False(t, ds.TransferSyntax().ExplicitVR)
}

func TestParse_NestedSequenceNavigation(t *testing.T) {
	inner := explicitShort(0x0008, 0x0104, "LO", []byte("CODE MEANING"))
	item := append(itemHeader(undefinedLen), inner...)
	item = append(item, itemDelimitation()...)

	seqHeader := explicitLong(0x0008, 0x1140, "SQ", undefinedLen, nil)
	dataset := append(seqHeader, item...)
	dataset = append(dataset, sequenceDelimitation()...)

	file := buildFile(explicitVRLittleEndianUID, dataset)

	ds, err := dicom.Parse(context.Background(), bytes.NewReader(file))
	require.NoError(t, err)
	defer ds.Dispose()

	items, ok := ds.GetSequence(tag.New(0x0008, 0x1140))
	require.True(t, ok)
	require.Len(t, items, 1)

	view, ok := items[0].GetRaw(tag.New(0x0008, 0x0104))
	require.True(t, ok)
	assert.Equal(t, "CODE MEANING", string(view.Bytes()))
}

func TestParse_EncapsulatedPixelDataFragments(t *testing.T) {
	header := explicitLong(0x7FE0, 0x0010, "OB", undefinedLen, nil)
	offsetTable := itemHeader(0)
	frag := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	fragItem := append(itemHeader(uint32(len(frag))), frag...)

	dataset := append(header, offsetTable...)
	dataset = append(dataset, fragItem...)
	dataset = append(dataset, sequenceDelimitation()...)

	file := buildFile(explicitVRLittleEndianUID, dataset)

	ds, err := dicom.Parse(context.Background(), bytes.NewReader(file))
	require.NoError(t, err)
	defer ds.Dispose()

	frags, ok := ds.GetFragments(tag.New(0x7FE0, 0x0010))
	require.True(t, ok)
	require.Len(t, frags, 2)
	assert.Equal(t, 0, frags[0].Len())
	assert.Equal(t, frag, frags[1].Bytes())
}

func TestParse_MissingPreamble_ReturnsBadPreamble(t *testing.T) {
	file := make([]byte, 132) // all zero: bytes 128..131 are not "DICM"

	_, err := dicom.Parse(context.Background(), bytes.NewReader(file))
	require.Error(t, err)

	var pe *dicom.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, dicom.KindBadPreamble, pe.Kind)
}

func TestParse_ShortInput_ReturnsTooSmall(t *testing.T) {
	file := make([]byte, 50)

	_, err := dicom.Parse(context.Background(), bytes.NewReader(file))
	require.Error(t, err)

	var pe *dicom.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, dicom.KindTooSmall, pe.Kind)
}

func TestParse_EmptyDatasetAfterMetaGroup(t *testing.T) {
	file := buildFile(explicitVRLittleEndianUID, nil)

	ds, err := dicom.Parse(context.Background(), bytes.NewReader(file))
	require.NoError(t, err)
	defer ds.Dispose()

	// The only stored element is the file meta Transfer Syntax UID; the
	// meta group length is discarded and nothing follows the meta group.
	assert.Equal(t, 1, ds.Len())
}

func TestParse_ChunkSizeInvariance(t *testing.T) {
	dataset := explicitShort(0x0010, 0x0010, "PN", []byte("DOE^JOHN"))
	dataset = append(dataset, explicitShort(0x0010, 0x0020, "LO", []byte("ID01"))...)
	file := buildFile(explicitVRLittleEndianUID, dataset)

	whole, err := dicom.Parse(context.Background(), bytes.NewReader(file))
	require.NoError(t, err)
	defer whole.Dispose()

	oneByte, err := dicom.Parse(context.Background(), iotest.OneByteReader(bytes.NewReader(file)))
	require.NoError(t, err)
	defer oneByte.Dispose()

	seventeen, err := dicom.Parse(context.Background(), bytes.NewReader(file), dicom.WithBlockSize(17))
	require.NoError(t, err)
	defer seventeen.Dispose()

	for _, got := range []*dicom.Dataset{oneByte, seventeen} {
		require.Equal(t, whole.Tags(), got.Tags())
		for _, tg := range whole.Tags() {
			wantView, _ := whole.GetRaw(tg)
			gotView, ok := got.GetRaw(tg)
			require.True(t, ok)
			assert.True(t, wantView.Equal(gotView))
		}
	}
}

func TestParse_DeflatedTransferSyntax(t *testing.T) {
	dataset := explicitShort(0x0010, 0x0010, "PN", []byte("DOE^JOHN"))

	var compressed bytes.Buffer
	fw, err := flate.NewWriter(&compressed, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = fw.Write(dataset)
	require.NoError(t, err)
	require.NoError(t, fw.Close())

	file := buildFile(deflatedVRLittleEndianUID, compressed.Bytes())

	ds, err := dicom.Parse(context.Background(), bytes.NewReader(file))
	require.NoError(t, err)
	defer ds.Dispose()

	view, ok := ds.GetRaw(tag.New(0x0010, 0x0010))
	require.True(t, ok)
	assert.Equal(t, "DOE^JOHN", string(view.Bytes()))
	assert.True(t, ds.TransferSyntax().Deflated)
}

func TestParse_GroupLengthElementIsSuppressed(t *testing.T) {
	nameElem := explicitShort(0x0010, 0x0010, "PN", []byte("DOE^JOHN"))
	groupLen := explicitShort(0x0010, 0x0000, "UL", u32le(uint32(len(nameElem))))
	dataset := append(groupLen, nameElem...)
	file := buildFile(explicitVRLittleEndianUID, dataset)

	ds, err := dicom.Parse(context.Background(), bytes.NewReader(file))
	require.NoError(t, err)
	defer ds.Dispose()

	// Transfer Syntax UID from the meta group plus Patient's Name.
	assert.Equal(t, 2, ds.Len())
	_, ok := ds.GetRaw(tag.New(0x0010, 0x0000))
	assert.False(t, ok)
}

func TestParse_CancelledContext(t *testing.T) {
	dataset := explicitShort(0x0010, 0x0010, "PN", []byte("DOE^JOHN"))
	file := buildFile(explicitVRLittleEndianUID, dataset)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := dicom.Parse(ctx, bytes.NewReader(file))
	require.Error(t, err)
}
