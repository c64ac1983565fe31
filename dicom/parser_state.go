package dicom

import (
	"compress/flate"
	"context"
	"fmt"
	"io"

	"github.com/codeninja55/dcmflow/dicom/tag"
	"github.com/codeninja55/dcmflow/dicom/value"
	"github.com/codeninja55/dcmflow/dicom/vr"
	"github.com/codeninja55/dcmflow/internal/arena"
	"github.com/codeninja55/dcmflow/internal/bytepipe"
)

// stage names one of the five resumable steps of the element decoder.
type stage int

const (
	stageGroup stage = iota
	stageElement
	stageVR
	stageLength
	stageValue
)

type containerKind int

const (
	containerSequence containerKind = iota
	containerFragments
)

// container is one open frame on the sequence/fragment nesting stack: a
// (group, element, items) triple plus the dataset that will own the
// finished element. Item datasets still open beneath it are tracked
// separately on parseState.datasetStack.
type container struct {
	kind  containerKind
	tag   tag.Tag
	vr    vr.VR
	owner *Dataset // dataset that will receive the finalized SQ/fragment element

	items     []*Dataset     // accumulated sequence items (containerSequence only)
	fragments []value.ByteView // accumulated fragments (containerFragments only)
}

// parseState is the scratch record driving the five-stage decoder across
// however many pipe reads it takes.
type parseState struct {
	stage  stage
	offset int64

	currentGroup           uint16
	currentTag             tag.Tag
	currentVR              vr.VR
	currentLength          uint32
	currentIsFragmentValue bool
	currentUsesBumpBlock   bool

	explicitVR          bool
	armSwitchToImplicit bool

	metaEndOffset     int64 // 0 until the file meta group length element is seen
	tsKnown           bool
	transferSyntaxUID string
	deflate           bool
	gate          *bytepipe.Gate
	gateResolved  bool

	containerStack []*container
	datasetStack   []*Dataset

	root       *Dataset
	pools      *arena.Pools
	tablePools *arena.TablePools

	bumpBlock  *arena.Block
	bumpOffset int

	valueDst     []byte
	valueWritten int
}

func newParseState(pools *arena.Pools, tablePools *arena.TablePools, gate *bytepipe.Gate, root *Dataset) *parseState {
	return &parseState{
		stage:      stageGroup,
		offset:     132,
		explicitVR: true, // file meta information is always Explicit VR Little Endian
		gate:       gate,
		root:       root,
		pools:      pools,
		tablePools: tablePools,
	}
}

// currentTarget is the dataset that a just-finalized element belongs to:
// the innermost open sequence item, or the root.
func (ps *parseState) currentTarget() *Dataset {
	if n := len(ps.datasetStack); n > 0 {
		return ps.datasetStack[n-1]
	}
	return ps.root
}

func (ps *parseState) topContainer() *container {
	if n := len(ps.containerStack); n > 0 {
		return ps.containerStack[n-1]
	}
	return nil
}

func isDelimiterTag(t tag.Tag) bool {
	return t.Group == tag.ItemGroup &&
		(t.Element == tag.Item.Element || t.Element == tag.ItemDelimitation.Element || t.Element == tag.SequenceDelimitation.Element)
}

// maybeResolveGate arms the producer's reader-splice gate once both facts
// it needs are known: where the file meta group ends, and whether the
// transfer syntax calls for DEFLATE decompression from that point on.
func (ps *parseState) maybeResolveGate() {
	if ps.gate == nil || ps.gateResolved || ps.metaEndOffset == 0 || !ps.tsKnown {
		return
	}
	var transform func(io.Reader) io.Reader
	if ps.deflate {
		transform = func(r io.Reader) io.Reader { return flate.NewReader(r) }
	}
	// Pump's byte counter starts at 0 right where Parse's 132-byte preamble
	// read left off, so the gate offset must be relative to that point, not
	// to the start of the file.
	ps.gate.Resolve(ps.metaEndOffset-132, transform)
	ps.gateResolved = true
}

// run drives the state machine to completion against pipe, suspending on
// pipe.AwaitMore whenever a stage reports insufficient bytes — the pipe is
// the sole suspension point.
func (ps *parseState) run(ctx context.Context, pipe *bytepipe.Pipe) error {
	for {
		if err := ctx.Err(); err != nil {
			return newParseError(KindCancelled, ps.offset, err.Error())
		}

		progressed, err := ps.step(pipe)
		if err != nil {
			return err
		}
		if progressed {
			continue
		}

		if pipe.Closed() {
			if srcErr := pipe.Err(); srcErr != nil {
				return fmt.Errorf("dicom: reading source at offset %d: %w", ps.offset, srcErr)
			}
			if ps.stage != stageGroup {
				return newParseError(KindUnexpectedEnd, ps.offset, "")
			}
			return nil
		}

		if err := pipe.AwaitMore(ctx); err != nil {
			return newParseError(KindCancelled, ps.offset, err.Error())
		}
	}
}
