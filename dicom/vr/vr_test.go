package vr_test

import (
	"testing"

	"github.com/codeninja55/dcmflow/dicom/vr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVR_StringRoundTrip(t *testing.T) {
	for code, v := range map[string]vr.VR{
		"AE": vr.ApplicationEntity, "OB": vr.OtherByte, "SQ": vr.SequenceOfItems,
		"SV": vr.SignedVeryLong, "UV": vr.UnsignedVeryLong, "UN": vr.Unknown,
	} {
		t.Run(code, func(t *testing.T) {
			assert.Equal(t, code, v.String())

			parsed, err := vr.Parse(code)
			require.NoError(t, err)
			assert.Equal(t, v, parsed)
		})
	}
}

func TestVR_Parse_Invalid(t *testing.T) {
	_, err := vr.Parse("ZZ")
	assert.Error(t, err)
}

func TestVR_IsValid(t *testing.T) {
	assert.True(t, vr.IsValid("OB"))
	assert.False(t, vr.IsValid("ZZ"))
}

func TestVR_UsesExplicitLength32(t *testing.T) {
	thirtyTwo := []vr.VR{
		vr.OtherByte, vr.OtherDouble, vr.OtherFloat, vr.OtherLong, vr.OtherVeryLong, vr.OtherWord,
		vr.SequenceOfItems, vr.UnlimitedCharacters, vr.Unknown, vr.UniversalResourceIdentifier,
		vr.UnlimitedText, vr.SignedVeryLong, vr.UnsignedVeryLong,
	}
	for _, v := range thirtyTwo {
		assert.Truef(t, v.UsesExplicitLength32(), "%s should use a 32-bit length", v)
	}

	sixteen := []vr.VR{vr.ApplicationEntity, vr.CodeString, vr.Date, vr.PersonName, vr.ShortString, vr.UnsignedShort}
	for _, v := range sixteen {
		assert.Falsef(t, v.UsesExplicitLength32(), "%s should use a 16-bit length", v)
	}
}

func TestVR_IsBinaryType(t *testing.T) {
	assert.True(t, vr.OtherByte.IsBinaryType())
	assert.True(t, vr.Unknown.IsBinaryType())
	assert.False(t, vr.PersonName.IsBinaryType())
}
