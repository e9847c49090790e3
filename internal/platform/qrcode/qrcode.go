// Package qrcode renders payloads as QR code images embedded in data URLs.
package qrcode

import (
	"encoding/base64"
	"errors"
	"fmt"

	goqr "github.com/skip2/go-qrcode"
)

const (
	DataURLPrefix = "data:image/png;base64,"
	DefaultSize   = 256
)

var ErrEmptyPayload = errors.New("qrcode: empty payload")

// Encoder turns a payload into an image data URL.
type Encoder interface {
	DataURL(payload []byte) (string, error)
}

// PNGEncoder produces PNG QR codes at medium error correction.
type PNGEncoder struct {
	Size  int
	Level goqr.RecoveryLevel
}

func NewPNGEncoder() *PNGEncoder {
	return &PNGEncoder{Size: DefaultSize, Level: goqr.Medium}
}

func (e *PNGEncoder) DataURL(payload []byte) (string, error) {
	if len(payload) == 0 {
		return "", ErrEmptyPayload
	}
	png, err := goqr.Encode(string(payload), e.Level, e.Size)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}
	return DataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}
