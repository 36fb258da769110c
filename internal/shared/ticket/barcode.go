package ticket

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
)

// ErrBarcode is returned when an order id cannot be encoded as Code 128.
var ErrBarcode = errors.New("ticket: barcode encoding failed")

const (
	rasterModuleWidth = 3
	rasterHeight      = 80
	vectorModuleWidth = 2
	vectorBarHeight   = 60
	vectorQuietZone   = 10 // modules
)

// encodeBarcode returns the unscaled Code 128 symbol for content.
func encodeBarcode(content string) (barcode.Barcode, error) {
	bc, err := code128.Encode(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBarcode, err)
	}
	return bc, nil
}

// barcodePNG renders the symbol as a raster image suitable for embedding in the document.
func barcodePNG(bc barcode.Barcode) ([]byte, error) {
	scaled, err := barcode.Scale(bc, bc.Bounds().Dx()*rasterModuleWidth, rasterHeight)
	if err != nil {
		return nil, fmt.Errorf("%w: scale: %v", ErrBarcode, err)
	}

	// 8-bit gray; the PDF writer rejects 16-bit PNGs.
	gray := image.NewGray(scaled.Bounds())
	draw.Draw(gray, gray.Bounds(), scaled, scaled.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("%w: png: %v", ErrBarcode, err)
	}
	return buf.Bytes(), nil
}

// barcodeSVG renders the symbol as SVG, one rect per run of dark modules, with a human-readable caption.
func barcodeSVG(bc barcode.Barcode) []byte {
	b := bc.Bounds()
	modules := b.Dx()
	quiet := vectorQuietZone * vectorModuleWidth
	width := modules*vectorModuleWidth + 2*quiet
	height := vectorBarHeight + 20

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, width, height, width, height)
	fmt.Fprintf(&sb, `<rect width="%d" height="%d" fill="#fff"/>`, width, height)

	for x := 0; x < modules; {
		if !isDark(bc.At(b.Min.X+x, b.Min.Y)) {
			x++
			continue
		}
		run := 1
		for x+run < modules && isDark(bc.At(b.Min.X+x+run, b.Min.Y)) {
			run++
		}
		fmt.Fprintf(&sb, `<rect x="%d" y="0" width="%d" height="%d" fill="#000"/>`,
			quiet+x*vectorModuleWidth, run*vectorModuleWidth, vectorBarHeight)
		x += run
	}

	fmt.Fprintf(&sb, `<text x="%d" y="%d" font-family="monospace" font-size="14" text-anchor="middle">`, width/2, vectorBarHeight+16)
	_ = xml.EscapeText(&sb, []byte(bc.Content()))
	sb.WriteString(`</text></svg>`)

	return []byte(sb.String())
}

func isDark(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r+g+b < 3*0x8000
}
