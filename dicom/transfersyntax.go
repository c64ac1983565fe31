package dicom

import "encoding/binary"

// MaxArrayLength is the largest value length this parser accepts, a 2
// GiB-ish ceiling well short of the full 32-bit range so a corrupt length
// field can't trigger a multi-gigabyte allocation attempt.
const MaxArrayLength = 2_147_483_591

// undefinedLength is the sentinel marking a container terminated by
// delimiters rather than a byte count.
const undefinedLength uint32 = 0xFFFFFFFF

// implicitVRLittleEndianUID is the Transfer Syntax UID that triggers the
// explicit-to-implicit VR switch.
const implicitVRLittleEndianUID = "1.2.840.10008.1.2"

// deflatedExplicitVRLittleEndianUID additionally wraps the dataset stream
// in raw DEFLATE.
const deflatedExplicitVRLittleEndianUID = "1.2.840.10008.1.2.1.99"

// TransferSyntax describes how the bytes following the file meta
// information are encoded.
type TransferSyntax struct {
	UID        string
	ExplicitVR bool
	ByteOrder  binary.ByteOrder
	Deflated   bool
}

// trimUID strips the single trailing NUL pad byte DICOM UIDs use to stay
// even-length, if present.
func trimUID(b []byte) string {
	if n := len(b); n > 0 && b[n-1] == 0x00 {
		b = b[:n-1]
	}
	return string(b)
}
