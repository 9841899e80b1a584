package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	jpegHead = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	pngHead  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
)

func TestValidateImageBySniff(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		head     []byte
		want     string
		wantErr  error
	}{
		{"jpeg", "trash.JPG", jpegHead, "image/jpeg", nil},
		{"png", "trash.png", pngHead, "image/png", nil},
		{"png named jpg", "trash.jpg", pngHead, "image/png", nil},
		{"svg extension", "x.svg", []byte("<svg></svg>"), "", ErrUnsupportedExtension},
		{"html disguised", "x.jpg", []byte("<!DOCTYPE html><html><script>"), "", ErrScriptableContent},
		{"xml disguised", "x.png", []byte("<?xml version=\"1.0\"?><svg/>"), "", ErrScriptableContent},
		{"plain text", "x.jpg", []byte("hello world"), "", ErrUnsupportedType},
		{"empty", "x.jpg", nil, "", ErrEmptyFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateImageBySniff(tt.filename, tt.head)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckSize(t *testing.T) {
	assert.ErrorIs(t, CheckSize(0, 100), ErrEmptyFile)
	assert.ErrorIs(t, CheckSize(101, 100), ErrTooLarge)
	assert.NoError(t, CheckSize(100, 100))
	assert.NoError(t, CheckSize(1<<30, 0))
}
