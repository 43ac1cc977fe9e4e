package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUploadValidator_ValidateFilename(t *testing.T) {
	v := NewUploadValidator(nil)

	tests := []struct {
		name     string
		filename string
		wantErr  bool
	}{
		{
			name:     "xlsx accepted",
			filename: "claims.xlsx",
			wantErr:  false,
		},
		{
			name:     "xlsm accepted",
			filename: "macros.XLSM",
			wantErr:  false,
		},
		{
			name:     "csv rejected",
			filename: "claims.csv",
			wantErr:  true,
		},
		{
			name:     "no extension rejected",
			filename: "claims",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateFilename(tt.filename)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUploadValidator_ValidateContent(t *testing.T) {
	v := NewUploadValidator(nil)

	assert.NoError(t, v.ValidateContent([]byte{0x50, 0x4B, 0x03, 0x04, 0x14, 0x00}))
	assert.Error(t, v.ValidateContent([]byte("Service Date,Amount")))
	assert.Error(t, v.ValidateContent([]byte{0x50}))
	assert.Error(t, v.ValidateContent(nil))
}

func TestUploadValidator_CustomExtensions(t *testing.T) {
	v := NewUploadValidator(nil, ".xlsx")

	assert.NoError(t, v.ValidateFilename("a.xlsx"))
	assert.Error(t, v.ValidateFilename("a.xlsm"))
}
