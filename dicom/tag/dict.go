package tag

import "github.com/codeninja55/dcmflow/dicom/vr"

// TagDict is the data dictionary used to resolve a VR for a tag when parsing
// Implicit VR Little Endian data, looked up from a static dictionary. A
// production deployment would swap this for the full ~5000-entry DICOM
// standard dictionary (PS3.6); this is a small stand-in covering the
// well-known tags this repo's documentation and tests exercise.
var TagDict = map[Tag]Info{
	New(0x0002, 0x0000): {Tag: New(0x0002, 0x0000), VRs: []vr.VR{vr.UnsignedLong}, Name: "File Meta Information Group Length", Keyword: "FileMetaInformationGroupLength"},
	New(0x0002, 0x0002): {Tag: New(0x0002, 0x0002), VRs: []vr.VR{vr.UniqueIdentifier}, Name: "Media Storage SOP Class UID", Keyword: "MediaStorageSOPClassUID"},
	New(0x0002, 0x0003): {Tag: New(0x0002, 0x0003), VRs: []vr.VR{vr.UniqueIdentifier}, Name: "Media Storage SOP Instance UID", Keyword: "MediaStorageSOPInstanceUID"},
	New(0x0002, 0x0010): {Tag: New(0x0002, 0x0010), VRs: []vr.VR{vr.UniqueIdentifier}, Name: "Transfer Syntax UID", Keyword: "TransferSyntaxUID"},
	New(0x0002, 0x0012): {Tag: New(0x0002, 0x0012), VRs: []vr.VR{vr.UniqueIdentifier}, Name: "Implementation Class UID", Keyword: "ImplementationClassUID"},

	New(0x0008, 0x0016): {Tag: New(0x0008, 0x0016), VRs: []vr.VR{vr.UniqueIdentifier}, Name: "SOP Class UID", Keyword: "SOPClassUID"},
	New(0x0008, 0x0018): {Tag: New(0x0008, 0x0018), VRs: []vr.VR{vr.UniqueIdentifier}, Name: "SOP Instance UID", Keyword: "SOPInstanceUID"},
	New(0x0008, 0x0020): {Tag: New(0x0008, 0x0020), VRs: []vr.VR{vr.Date}, Name: "Study Date", Keyword: "StudyDate"},
	New(0x0008, 0x0060): {Tag: New(0x0008, 0x0060), VRs: []vr.VR{vr.CodeString}, Name: "Modality", Keyword: "Modality"},
	New(0x0008, 0x0104): {Tag: New(0x0008, 0x0104), VRs: []vr.VR{vr.LongString}, Name: "Code Meaning", Keyword: "CodeMeaning"},
	New(0x0008, 0x1140): {Tag: New(0x0008, 0x1140), VRs: []vr.VR{vr.SequenceOfItems}, Name: "Referenced Image Sequence", Keyword: "ReferencedImageSequence"},
	New(0x0008, 0x2112): {Tag: New(0x0008, 0x2112), VRs: []vr.VR{vr.SequenceOfItems}, Name: "Source Image Sequence", Keyword: "SourceImageSequence"},

	New(0x0010, 0x0010): {Tag: New(0x0010, 0x0010), VRs: []vr.VR{vr.PersonName}, Name: "Patient's Name", Keyword: "PatientName"},
	New(0x0010, 0x0020): {Tag: New(0x0010, 0x0020), VRs: []vr.VR{vr.LongString}, Name: "Patient ID", Keyword: "PatientID"},

	New(0x0028, 0x0002): {Tag: New(0x0028, 0x0002), VRs: []vr.VR{vr.UnsignedShort}, Name: "Samples per Pixel", Keyword: "SamplesPerPixel"},
	New(0x0028, 0x1054): {Tag: New(0x0028, 0x1054), VRs: []vr.VR{vr.LongString}, Name: "Rescale Type", Keyword: "RescaleType"},

	New(0x0040, 0xA170): {Tag: New(0x0040, 0xA170), VRs: []vr.VR{vr.SequenceOfItems}, Name: "Purpose of Reference Code Sequence", Keyword: "PurposeOfReferenceCodeSequence"},
	New(0x0040, 0x2016): {Tag: New(0x0040, 0x2016), VRs: []vr.VR{vr.LongString}, Name: "Placer Order Number / Imaging Service Request", Keyword: "PlacerOrderNumberImagingServiceRequest"},

	New(0x7FE0, 0x0010): {Tag: New(0x7FE0, 0x0010), VRs: []vr.VR{vr.OtherByte, vr.OtherWord}, Name: "Pixel Data", Keyword: "PixelData"},
}
