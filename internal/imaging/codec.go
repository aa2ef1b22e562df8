package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	// Register decoders for the formats the upload endpoint accepts.
	_ "image/gif"
	_ "image/jpeg"
)

// ContentTypePNG is the content type of every encoded result.
const ContentTypePNG = "image/png"

// Decode sniffs the format of the uploaded bytes and decodes them.
// A decode failure means client-supplied bytes were not a recognizable
// image.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image payload")
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid image: %w", err)
	}

	return img, nil
}

// EncodePNG produces wire-ready PNG bytes for the response body.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer

	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}

	return buf.Bytes(), nil
}
