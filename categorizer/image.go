package categorizer

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidDataURI = errors.New("invalid data uri")

// Image is an inline image payload: media type plus raw bytes.
type Image struct {
	MIMEType string
	Data     []byte
}

// ParseDataURI decodes "data:<mimetype>;base64,<data>".
func ParseDataURI(uri string) (*Image, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, fmt.Errorf("%w: missing data: prefix", ErrInvalidDataURI)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("%w: missing payload", ErrInvalidDataURI)
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok || mimeType == "" {
		return nil, fmt.Errorf("%w: expected <mimetype>;base64", ErrInvalidDataURI)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return &Image{MIMEType: mimeType, Data: data}, nil
}

// DataURI is the inverse of ParseDataURI.
func (img *Image) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", img.MIMEType, base64.StdEncoding.EncodeToString(img.Data))
}
