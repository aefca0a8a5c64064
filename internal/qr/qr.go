package qr

import (
	"bytes"
	"fmt"
	"io"
	"regexp"

	qrcode "github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
)

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Options controls QR rendering. Zero value gives a black square-module code
// on white.
type Options struct {
	Shape string // "square" (default) or "circle"
	FgHex string // foreground color, "#rrggbb"
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// PNG renders a scannable QR code for a short URL.
func PNG(shortURL string, o Options) ([]byte, error) {
	opts := []standard.ImageOption{
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
		standard.WithQRWidth(10),
		standard.WithBorderWidth(20),
	}
	if o.Shape == "circle" {
		opts = append(opts, standard.WithCircleShape())
	}
	if hexColorRe.MatchString(o.FgHex) {
		opts = append(opts, standard.WithFgColorRGBHex(o.FgHex))
	}

	qrc, err := qrcode.New(shortURL)
	if err != nil {
		return nil, fmt.Errorf("generate qr code: %w", err)
	}

	var buf bytes.Buffer
	writer := standard.NewWithWriter(nopCloser{&buf}, opts...)
	if err := qrc.Save(writer); err != nil {
		return nil, fmt.Errorf("render qr code: %w", err)
	}
	return buf.Bytes(), nil
}
