// Package pdfx wraps MuPDF (go-fitz) for report PDFs: text extraction for
// the prompt, page rendering for vision-based grading.
package pdfx

import (
	"bytes"
	"image/jpeg"
	"log"
	"strings"

	"github.com/gen2brain/go-fitz"
)

const jpegQuality = 80

type Converter struct{}

func New() *Converter { return &Converter{} }

// ExtractText concatenates the text of every page.
func (c *Converter) ExtractText(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", err
	}
	defer doc.Close()

	var sb strings.Builder
	for n := 0; n < doc.NumPage(); n++ {
		text, err := doc.Text(n)
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// RenderPages renders up to maxPages pages as JPEGs, in page order. Any
// failure degrades to an empty slice so grading can fall back to text-only.
func (c *Converter) RenderPages(data []byte, maxPages int) [][]byte {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		log.Printf("pdfx: render open failed: %v", err)
		return nil
	}
	defer doc.Close()

	n := doc.NumPage()
	if maxPages > 0 && n > maxPages {
		n = maxPages
	}
	out := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		img, err := doc.Image(i)
		if err != nil {
			log.Printf("pdfx: render page %d failed: %v", i, err)
			return nil
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			log.Printf("pdfx: encode page %d failed: %v", i, err)
			return nil
		}
		out = append(out, buf.Bytes())
	}
	return out
}
