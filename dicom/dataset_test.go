package dicom

import (
	"testing"

	"github.com/codeninja55/dcmflow/dicom/element"
	"github.com/codeninja55/dcmflow/dicom/tag"
	"github.com/codeninja55/dcmflow/dicom/value"
	"github.com/codeninja55/dcmflow/dicom/vr"
	"github.com/codeninja55/dcmflow/internal/arena"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPools() *arena.TablePools {
	return arena.DefaultTablePools()
}

func rawElem(t tag.Tag, s string) *element.Element {
	return element.New(t, vr.ShortString, value.NewRaw(value.NewByteView([]byte(s))))
}

func TestDataset_AddAndGetRaw(t *testing.T) {
	pools := newTestPools()
	ds := newRootDataset(pools)
	defer ds.Dispose()

	patientName := tag.New(0x0010, 0x0010)
	require.NoError(t, ds.add(patientName, rawElem(patientName, "DOE^JOHN")))

	view, ok := ds.GetRaw(patientName)
	require.True(t, ok)
	assert.Equal(t, "DOE^JOHN", string(view.Bytes()))
}

func TestDataset_AddDuplicateTagErrors(t *testing.T) {
	pools := newTestPools()
	ds := newRootDataset(pools)
	defer ds.Dispose()

	tg := tag.New(0x0010, 0x0010)
	require.NoError(t, ds.add(tg, rawElem(tg, "DOE^JOHN")))
	err := ds.add(tg, rawElem(tg, "SMITH^JANE"))
	assert.Error(t, err)
}

func TestDataset_AddGroupLengthIsDiscarded(t *testing.T) {
	pools := newTestPools()
	ds := newRootDataset(pools)
	defer ds.Dispose()

	gl := tag.New(0x0008, 0x0000)
	require.NoError(t, ds.add(gl, rawElem(gl, "\x00\x00\x00\x00")))
	assert.Equal(t, 0, ds.Len())
	_, ok := ds.GetRaw(gl)
	assert.False(t, ok)
}

func TestDataset_TagsPreservesInsertionOrder(t *testing.T) {
	pools := newTestPools()
	ds := newRootDataset(pools)
	defer ds.Dispose()

	a := tag.New(0x0010, 0x0020)
	b := tag.New(0x0008, 0x0018)
	c := tag.New(0x0020, 0x000D)

	require.NoError(t, ds.add(a, rawElem(a, "1")))
	require.NoError(t, ds.add(b, rawElem(b, "2")))
	require.NoError(t, ds.add(c, rawElem(c, "3")))

	assert.Equal(t, []tag.Tag{a, b, c}, ds.Tags())
}

func TestDataset_GetSequence(t *testing.T) {
	pools := newTestPools()
	root := newRootDataset(pools)
	defer root.Dispose()

	item := newItemDataset(pools)
	inner := tag.New(0x0008, 0x0100)
	require.NoError(t, item.add(inner, rawElem(inner, "CODE")))
	root.registerNested(item)

	seqTag := tag.New(0x0008, 0x1150)
	content := value.NewSequence([]value.Dataset{item})
	require.NoError(t, root.add(seqTag, element.New(seqTag, vr.SequenceOfItems, content)))

	items, ok := root.GetSequence(seqTag)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, item, items[0])
}

func TestDataset_GetFragments(t *testing.T) {
	pools := newTestPools()
	ds := newRootDataset(pools)
	defer ds.Dispose()

	pixelData := tag.New(0x7FE0, 0x0010)
	frags := []value.ByteView{value.NewByteView([]byte("a")), value.NewByteView([]byte("bb"))}
	content := value.NewFragments(frags)
	require.NoError(t, ds.add(pixelData, element.New(pixelData, vr.OtherByte, content)))

	got, ok := ds.GetFragments(pixelData)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, "bb", string(got[1].Bytes()))
}

func TestDataset_GetRaw_WrongKindMismatch(t *testing.T) {
	pools := newTestPools()
	ds := newRootDataset(pools)
	defer ds.Dispose()

	pixelData := tag.New(0x7FE0, 0x0010)
	content := value.NewFragments(nil)
	require.NoError(t, ds.add(pixelData, element.New(pixelData, vr.OtherByte, content)))

	_, ok := ds.GetRaw(pixelData)
	assert.False(t, ok)
}

func TestDataset_Get_MissingTag(t *testing.T) {
	pools := newTestPools()
	ds := newRootDataset(pools)
	defer ds.Dispose()

	_, ok := ds.Get(tag.New(0x0010, 0x0010))
	assert.False(t, ok)
}

func TestDataset_DisposeIsIdempotentAndReturnsBlocks(t *testing.T) {
	pools := newTestPools()
	blockPool := arena.NewBlockPool(4)
	ds := newRootDataset(pools)

	b := blockPool.Rent(16)
	ds.registerBlock(b)

	ds.Dispose()
	ds.Dispose() // must not panic or double-release

	assert.True(t, ds.disposed)
	assert.Nil(t, ds.table)
	assert.Nil(t, ds.blocks)
}

func TestDataset_DisposeRecursesIntoNested(t *testing.T) {
	pools := newTestPools()
	root := newRootDataset(pools)
	item := newItemDataset(pools)
	root.registerNested(item)

	root.Dispose()
	assert.True(t, item.disposed)
}
