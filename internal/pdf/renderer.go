// Package pdf lays an intake record and its generated agenda out as a PDF.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"oneonone/agenda-service/internal/agenda"
	"oneonone/agenda-service/internal/models"

	"github.com/go-pdf/fpdf"
)

const (
	Title       = "1on1 Meeting Agenda"
	Filename    = "1on1_agenda.pdf"
	ContentType = "application/pdf"

	unavailableHeading = "Agenda unavailable"
)

type Options struct {
	// DisableCompression leaves page streams readable, which tests rely on.
	DisableCompression bool
}

type Renderer struct {
	font Font
	opts Options
}

func NewRenderer(font Font, opts Options) *Renderer {
	if font.Family == "" {
		font = FallbackFont()
	}
	return &Renderer{font: font, opts: opts}
}

// Document is everything that ends up on the page.
type Document struct {
	Intake models.Intake
	Result agenda.Result
	Author string
}

func (r *Renderer) Font() Font {
	return r.font
}

func (r *Renderer) Render(doc Document) (out []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			out, err = nil, fmt.Errorf("render pdf: %v", p)
		}
	}()

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetCompression(!r.opts.DisableCompression)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	family := r.font.Family
	tr := basicPlaneOnly
	if r.font.Fallback() {
		tr = pdf.UnicodeTranslatorFromDescriptor("")
	} else {
		pdf.AddUTF8FontFromBytes(family, "", r.font.Data)
		pdf.AddUTF8FontFromBytes(family, "B", r.font.Data)
	}

	pdf.SetTitle(Title, true)
	pdf.SetSubject("One-on-one meeting agenda", true)
	pdf.SetCreator("agenda-service", true)
	if doc.Author != "" {
		pdf.SetAuthor(doc.Author, true)
	}

	pdf.AddPage()

	pdf.SetFont(family, "B", 16)
	pdf.MultiCell(0, 9, tr(Title), "", "L", false)
	pdf.Ln(8)

	for _, field := range doc.Intake.Fields() {
		pdf.SetFont(family, "B", 10)
		pdf.Write(5, tr(field.Label+": "))
		pdf.SetFont(family, "", 10)
		pdf.Write(5, tr(field.Value))
		pdf.Ln(6)
	}
	pdf.Ln(6)

	if doc.Result.Failed() {
		pdf.SetFont(family, "B", 12)
		pdf.MultiCell(0, 7, tr(unavailableHeading), "", "L", false)
		pdf.Ln(2)
		pdf.SetFont(family, "", 11)
		pdf.MultiCell(0, 6, tr(doc.Result.Reason()), "", "L", false)
	} else {
		pdf.SetFont(family, "", 12)
		for _, paragraph := range Paragraphs(doc.Result.Text) {
			if paragraph == "" {
				pdf.Ln(4)
				continue
			}
			pdf.MultiCell(0, 6, tr(paragraph), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Paragraphs splits agenda text on line breaks. Blank lines are kept as
// empty strings so the layout can turn them into spacing.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.Trim(text, "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	return lines
}

// basicPlaneOnly replaces runes outside the Basic Multilingual Plane, which
// fpdf's UTF-8 fonts reject, with a question mark.
func basicPlaneOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFFFF {
			return '?'
		}
		return r
	}, s)
}
