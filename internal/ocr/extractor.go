package ocr

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/otiai10/gosseract/v2"
)

// Extractor implements Engine. Images go through Tesseract; PDF, DOCX, and
// plain text are read from their digital text layers.
type Extractor struct {
	Languages []string

	clientFactory func() *gosseract.Client
}

// NewExtractor constructs an Extractor using the given Tesseract languages.
func NewExtractor(languages []string) *Extractor {
	return &Extractor{
		Languages:     languages,
		clientFactory: gosseract.NewClient,
	}
}

// Available verifies the Tesseract installation carries the configured
// language data.
func (e *Extractor) Available(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	available, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return fmt.Errorf("query tesseract languages: %w", err)
	}

	for _, want := range e.Languages {
		found := false
		for _, have := range available {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("tesseract language %q is not installed", want)
		}
	}
	return nil
}

// Extract routes the payload by file type.
func (e *Extractor) Extract(ctx context.Context, data []byte, fileType string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(data) == 0 {
		return Result{}, fmt.Errorf("empty payload")
	}

	switch strings.ToLower(fileType) {
	case ".txt":
		return extractPlainText(data)
	case ".pdf":
		return extractPDF(data)
	case ".docx":
		return extractDOCX(data)
	case ".jpg", ".jpeg", ".png":
		return e.recognizeImage(data)
	default:
		return Result{}, fmt.Errorf("unsupported file type: %s", fileType)
	}
}

func (e *Extractor) recognizeImage(data []byte) (Result, error) {
	c := e.clientFactory()
	defer c.Close()

	if len(e.Languages) > 0 {
		if err := c.SetLanguage(e.Languages...); err != nil {
			return Result{}, fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetImageFromBytes(data); err != nil {
		return Result{}, fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return Result{}, fmt.Errorf("recognize text: %w", err)
	}

	return Result{
		Text:       strings.TrimSpace(text),
		Confidence: wordConfidence(c),
	}, nil
}

// wordConfidence averages Tesseract's per-word confidences onto a 0..1 scale.
func wordConfidence(c *gosseract.Client) float64 {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence / 100.0
	}
	return sum / float64(len(boxes))
}

func extractPlainText(data []byte) (Result, error) {
	if !utf8.Valid(data) {
		return Result{}, fmt.Errorf("text file is not valid UTF-8")
	}
	return Result{Text: strings.TrimSpace(string(data)), Confidence: 1}, nil
}

func extractPDF(data []byte) (Result, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("parse pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return Result{}, fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return Result{}, fmt.Errorf("read pdf text: %w", err)
	}
	return Result{Text: strings.TrimSpace(buf.String()), Confidence: 1}, nil
}

func extractDOCX(data []byte) (Result, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("parse docx: %w", err)
	}
	defer doc.Close()

	text := stripDocxXML(doc.Editable().GetContent())
	return Result{Text: text, Confidence: 1}, nil
}

// stripDocxXML flattens WordprocessingML to plain text, keeping paragraph
// breaks.
func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return strings.TrimSpace(raw)
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

var _ Engine = (*Extractor)(nil)
