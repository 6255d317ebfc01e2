package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	fallbackFamily = "Helvetica"
	unicodeFamily  = "agenda-unicode"
)

// Font is the typeface injected into a Renderer. A Font without Data is the
// built-in Helvetica fallback, which only covers Windows-1252 text.
type Font struct {
	Family string
	Path   string
	Data   []byte
}

func FallbackFont() Font {
	return Font{Family: fallbackFamily}
}

func (f Font) Fallback() bool {
	return len(f.Data) == 0
}

// ResolveFont returns the first candidate that is a readable TrueType file
// fpdf can embed, or the fallback font with the reason each candidate was
// rejected.
func ResolveFont(candidates []string) (Font, []error) {
	var rejected []error
	for _, path := range candidates {
		data, err := loadTrueType(path)
		if err != nil {
			rejected = append(rejected, err)
			continue
		}
		return Font{Family: unicodeFamily, Path: path, Data: data}, rejected
	}
	return FallbackFont(), rejected
}

var (
	trueTypeMagic = []byte{0x00, 0x01, 0x00, 0x00}
	appleTrueType = []byte("true")
)

func loadTrueType(path string) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".ttf" {
		return nil, fmt.Errorf("%s: unsupported font format %q", path, ext)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < 4 || !(bytes.HasPrefix(data, trueTypeMagic) || bytes.HasPrefix(data, appleTrueType)) {
		return nil, fmt.Errorf("%s: not a TrueType font", path)
	}
	if err := trialEmbed(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

// trialEmbed lays out a short line with the font in a throwaway document.
// fpdf panics or silently skips registration on malformed tables, so both
// are turned into errors here instead of at render time.
func trialEmbed(data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("font cannot be embedded: %v", r)
		}
	}()

	doc := fpdf.New("P", "mm", "Letter", "")
	doc.AddUTF8FontFromBytes(unicodeFamily, "", data)
	doc.AddPage()
	doc.SetFont(unicodeFamily, "", 10)
	doc.Write(5, "Agenda Zoë")
	if err := doc.Output(io.Discard); err != nil {
		return fmt.Errorf("font cannot be embedded: %w", err)
	}
	return nil
}
