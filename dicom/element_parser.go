package dicom

import (
	"encoding/binary"
	"fmt"

	"github.com/codeninja55/dcmflow/dicom/element"
	"github.com/codeninja55/dcmflow/dicom/tag"
	"github.com/codeninja55/dcmflow/dicom/value"
	"github.com/codeninja55/dcmflow/dicom/vr"
	"github.com/codeninja55/dcmflow/internal/bytepipe"
)

// step advances the state machine by whatever the current stage allows.
// progressed is false exactly when the stage needs more bytes than the pipe
// currently holds; the caller must then await the pipe and retry. No stage
// ever blocks internally.
func (ps *parseState) step(pipe *bytepipe.Pipe) (progressed bool, err error) {
	switch ps.stage {
	case stageGroup:
		return ps.stepGroup(pipe)
	case stageElement:
		return ps.stepElement(pipe)
	case stageVR:
		return ps.stepVR(pipe)
	case stageLength:
		return ps.stepLength(pipe)
	case stageValue:
		return ps.stepValue(pipe)
	default:
		return false, newParseError(KindUnknownParseStage, ps.offset, fmt.Sprintf("stage %d", ps.stage))
	}
}

func (ps *parseState) stepGroup(pipe *bytepipe.Pipe) (bool, error) {
	data, ok := pipe.TryRead(2)
	if !ok {
		return false, nil
	}
	ps.currentGroup = binary.LittleEndian.Uint16(data)
	pipe.Advance(2)
	ps.offset += 2
	ps.stage = stageElement
	return true, nil
}

func (ps *parseState) stepElement(pipe *bytepipe.Pipe) (bool, error) {
	data, ok := pipe.TryRead(2)
	if !ok {
		return false, nil
	}
	elementNum := binary.LittleEndian.Uint16(data)
	pipe.Advance(2)
	ps.offset += 2

	t := tag.New(ps.currentGroup, elementNum)

	if ps.armSwitchToImplicit && t.Group > tag.MetadataGroup {
		ps.explicitVR = false
		ps.armSwitchToImplicit = false
	}

	if isDelimiterTag(t) {
		ps.currentTag = t
		ps.currentVR = 0
		ps.stage = stageLength
		return true, nil
	}

	if !ps.explicitVR {
		inferred := vr.Unknown
		if info, ferr := tag.Find(t); ferr == nil && len(info.VRs) > 0 {
			inferred = info.VRs[0]
		}
		if t.IsGroupLength() && inferred == vr.Unknown {
			inferred = vr.UnsignedLong
		}
		ps.currentTag = t
		ps.currentVR = inferred
		ps.stage = stageLength
		return true, nil
	}

	ps.currentTag = t
	ps.stage = stageVR
	return true, nil
}

func (ps *parseState) stepVR(pipe *bytepipe.Pipe) (bool, error) {
	data, ok := pipe.TryRead(2)
	if !ok {
		return false, nil
	}
	s := string(data)
	v, perr := vr.Parse(s)
	if perr != nil {
		return false, newParseError(KindUnknownVR, ps.offset, fmt.Sprintf("%q", s))
	}
	pipe.Advance(2)
	ps.offset += 2
	ps.currentVR = v
	ps.stage = stageLength
	return true, nil
}

func (ps *parseState) stepLength(pipe *bytepipe.Pipe) (bool, error) {
	if ps.currentTag.Group == tag.ItemGroup {
		return ps.stepItemLength(pipe)
	}
	return ps.stepNormalLength(pipe)
}

func (ps *parseState) stepItemLength(pipe *bytepipe.Pipe) (bool, error) {
	data, ok := pipe.TryRead(4)
	if !ok {
		return false, nil
	}
	length := binary.LittleEndian.Uint32(data)
	pipe.Advance(4)
	ps.offset += 4

	switch ps.currentTag.Element {
	case tag.Item.Element:
		top := ps.topContainer()
		switch {
		case top != nil && top.kind == containerSequence:
			if length != undefinedLength {
				return false, newParseError(KindUnsupportedExplicitLengthItem, ps.offset, "")
			}
			child := newItemDataset(ps.tablePools)
			ps.datasetStack = append(ps.datasetStack, child)
			ps.stage = stageGroup
			return true, nil
		case top != nil && top.kind == containerFragments:
			if length == undefinedLength || uint64(length) > MaxArrayLength {
				return false, newParseError(KindMalformedItem, ps.offset, "invalid fragment item length")
			}
			ps.currentLength = length
			ps.currentIsFragmentValue = true
			ps.currentUsesBumpBlock = false
			ps.stage = stageValue
			return true, nil
		default:
			return false, newParseError(KindMalformedItem, ps.offset, "item outside sequence or fragment context")
		}

	case tag.ItemDelimitation.Element:
		if len(ps.datasetStack) == 0 {
			return false, newParseError(KindMalformedItem, ps.offset, "orphan item delimitation")
		}
		child := ps.datasetStack[len(ps.datasetStack)-1]
		ps.datasetStack = ps.datasetStack[:len(ps.datasetStack)-1]
		top := ps.topContainer()
		if top == nil || top.kind != containerSequence {
			return false, newParseError(KindMalformedItem, ps.offset, "item delimitation outside sequence")
		}
		top.items = append(top.items, child)
		ps.stage = stageGroup
		return true, nil

	case tag.SequenceDelimitation.Element:
		c := ps.topContainer()
		if c == nil {
			return false, newParseError(KindMalformedItem, ps.offset, "orphan sequence delimitation")
		}
		ps.containerStack = ps.containerStack[:len(ps.containerStack)-1]

		var content value.Content
		if c.kind == containerSequence {
			items := make([]value.Dataset, len(c.items))
			for i, d := range c.items {
				items[i] = d
				c.owner.registerNested(d)
			}
			content = value.NewSequence(items)
		} else {
			content = value.NewFragments(c.fragments)
		}
		elem := element.New(c.tag, c.vr, content)
		if addErr := c.owner.add(c.tag, elem); addErr != nil {
			return false, newParseError(KindMalformedItem, ps.offset, addErr.Error())
		}
		ps.stage = stageGroup
		return true, nil

	default:
		return false, newParseError(KindMalformedItem, ps.offset, "unexpected item-group element")
	}
}

func (ps *parseState) stepNormalLength(pipe *bytepipe.Pipe) (bool, error) {
	explicit := ps.explicitVR
	is32 := !explicit || ps.currentVR.UsesExplicitLength32()

	if is32 {
		need := 4
		if explicit {
			need = 6 // 2 reserved bytes + 4-byte length
		}
		data, ok := pipe.TryRead(need)
		if !ok {
			return false, nil
		}
		length := binary.LittleEndian.Uint32(data[need-4:])
		pipe.Advance(need)
		ps.offset += int64(need)

		if ps.currentVR == vr.SequenceOfItems {
			ps.containerStack = append(ps.containerStack, &container{
				kind: containerSequence, tag: ps.currentTag, vr: vr.SequenceOfItems, owner: ps.currentTarget(),
			})
			ps.stage = stageGroup
			return true, nil
		}
		if length == undefinedLength {
			ps.containerStack = append(ps.containerStack, &container{
				kind: containerFragments, tag: ps.currentTag, vr: ps.currentVR, owner: ps.currentTarget(),
			})
			ps.stage = stageGroup
			return true, nil
		}
		if uint64(length) > MaxArrayLength {
			return false, newParseError(KindValueTooLarge, ps.offset, fmt.Sprintf("length %d", length))
		}
		ps.currentLength = length
		ps.currentIsFragmentValue = false
		ps.currentUsesBumpBlock = false
		ps.stage = stageValue
		return true, nil
	}

	data, ok := pipe.TryRead(2)
	if !ok {
		return false, nil
	}
	ps.currentLength = uint32(binary.LittleEndian.Uint16(data))
	pipe.Advance(2)
	ps.offset += 2
	ps.currentIsFragmentValue = false
	ps.currentUsesBumpBlock = true
	ps.stage = stageValue
	return true, nil
}

func (ps *parseState) stepValue(pipe *bytepipe.Pipe) (bool, error) {
	if ps.currentLength == 0 {
		return ps.finalizeValue(value.NewByteView(nil))
	}

	if ps.valueDst == nil {
		needed := int(ps.currentLength)
		if ps.currentUsesBumpBlock && needed > ps.pools.BumpBlockSize {
			// A short-form length can run up to 65535 bytes, which may exceed
			// the bump block size; give it a dedicated block instead of
			// forcing it into one sized for the common short-value case.
			block := ps.pools.Small.Rent(needed)
			ps.root.registerBlock(block)
			ps.valueDst = block.Bytes()
		} else if ps.currentUsesBumpBlock {
			if ps.bumpBlock == nil || ps.bumpBlock.Cap()-ps.bumpOffset < needed {
				ps.bumpBlock = ps.pools.Small.Rent(ps.pools.BumpBlockSize)
				ps.root.registerBlock(ps.bumpBlock)
				ps.bumpOffset = 0
			}
			ps.valueDst = ps.bumpBlock.Bytes()[ps.bumpOffset : ps.bumpOffset+needed]
			ps.bumpOffset += needed
		} else {
			pool := ps.pools.Small
			if needed >= ps.pools.LargeThreshold {
				pool = ps.pools.Large
			}
			block := pool.Rent(needed)
			ps.root.registerBlock(block)
			ps.valueDst = block.Bytes()
		}
	}

	remaining := int(ps.currentLength) - ps.valueWritten
	data, n := pipe.TryReadUpTo(remaining)
	if n == 0 {
		return false, nil
	}
	copy(ps.valueDst[ps.valueWritten:], data)
	pipe.Advance(n)
	ps.offset += int64(n)
	ps.valueWritten += n

	if ps.valueWritten < int(ps.currentLength) {
		return true, nil
	}

	view := value.NewByteView(ps.valueDst)
	ps.valueDst = nil
	ps.valueWritten = 0
	return ps.finalizeValue(view)
}

// finalizeValue dispatches a completed value to its destination: a fragment
// list, a discarded group-length, or a newly added element.
func (ps *parseState) finalizeValue(view value.ByteView) (bool, error) {
	if ps.currentIsFragmentValue {
		top := ps.topContainer()
		if top == nil || top.kind != containerFragments {
			return false, newParseError(KindMalformedItem, ps.offset, "fragment value outside fragment context")
		}
		top.fragments = append(top.fragments, view)
		ps.currentIsFragmentValue = false
		ps.stage = stageGroup
		return true, nil
	}

	t := ps.currentTag
	if t.IsGroupLength() {
		if t.Equals(tag.FileMetaGroupLength) {
			ps.metaEndOffset = ps.offset + int64(decodeUL(view))
			ps.maybeResolveGate()
		}
		ps.stage = stageGroup
		return true, nil
	}

	elem := element.New(t, ps.currentVR, value.NewRaw(view))
	if addErr := ps.currentTarget().add(t, elem); addErr != nil {
		return false, newParseError(KindMalformedItem, ps.offset, addErr.Error())
	}

	if t.Equals(tag.TransferSyntaxUID) {
		uid := trimUID(view.Bytes())
		ps.tsKnown = true
		ps.transferSyntaxUID = uid
		ps.deflate = uid == deflatedExplicitVRLittleEndianUID
		if uid == implicitVRLittleEndianUID {
			ps.armSwitchToImplicit = true
		}
		ps.maybeResolveGate()
	}

	ps.stage = stageGroup
	return true, nil
}

func decodeUL(v value.ByteView) uint32 {
	b := v.Bytes()
	if len(b) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}
