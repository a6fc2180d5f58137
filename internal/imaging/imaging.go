// Package imaging turns uploaded image files into data URLs stored on products.
package imaging

import (
	"encoding/base64"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

var (
	// ErrNotImage is returned when the content is not an image
	ErrNotImage = errors.New("file is not an image")
	// ErrTooLarge is returned when the content exceeds the size limit
	ErrTooLarge = errors.New("image is too large")
	// ErrEmpty is returned for an empty upload
	ErrEmpty = errors.New("image is empty")
)

// Detect returns the MIME type of data if it is an image
func Detect(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return "", errors.Wrapf(ErrNotImage, "detected %s", mime.String())
	}
	return mime.String(), nil
}

// ToDataURL reads at most maxBytes from r and encodes it as a data URL
func ToDataURL(r io.Reader, maxBytes int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return "", errors.Wrap(err, "read image")
	}
	if int64(len(data)) > maxBytes {
		return "", ErrTooLarge
	}
	mime, err := Detect(data)
	if err != nil {
		return "", err
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// ParseDataURL decodes a base64 data URL into its MIME type and bytes
func ParseDataURL(url string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return "", nil, errors.New("not a data URL")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return "", nil, errors.New("data URL is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, errors.Wrap(err, "decode data URL")
	}
	return strings.TrimSuffix(header, ";base64"), data, nil
}
