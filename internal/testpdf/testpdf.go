// Package testpdf builds small PDFs for tests with fpdf. Text is set in the
// Go fonts, embedded as simple TrueType fonts with a WinAnsi width table so
// extractors can measure every glyph.
package testpdf

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"fmt"
	"sync"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Base font names as they appear in the generated documents.
const (
	Regular = "Go-Regular"
	Bold    = "Go-Bold"
)

const family = "go"

// Text is a line of text with its baseline at (X, Y). Y is measured from the
// top of the page, growing downward.
type Text struct {
	X, Y float64
	Size float64
	Bold bool
	S    string
}

// Page is one page of the document.
type Page struct {
	Width, Height float64
	Texts         []Text
}

// NewPage returns an empty page with the given size.
func NewPage(width, height float64) *Page {
	return &Page{Width: width, Height: height}
}

// Add appends a regular text line.
func (p *Page) Add(x, y, size float64, s string) *Page {
	p.Texts = append(p.Texts, Text{X: x, Y: y, Size: size, S: s})
	return p
}

// AddBold appends a bold text line.
func (p *Page) AddBold(x, y, size float64, s string) *Page {
	p.Texts = append(p.Texts, Text{X: x, Y: y, Size: size, Bold: true, S: s})
	return p
}

// fontBox and fontDesc mirror the JSON font definition read by
// fpdf.AddFontFromBytes.
type fontBox struct {
	Xmin, Ymin, Xmax, Ymax int
}

type fontDesc struct {
	Ascent       int
	Descent      int
	CapHeight    int
	Flags        int
	FontBBox     fontBox
	ItalicAngle  int
	StemV        int
	MissingWidth int
}

type fontDef struct {
	Tp           string
	Name         string
	Desc         fontDesc
	Up           int
	Ut           int
	Cw           []int
	Enc          string
	File         string
	OriginalSize int
}

type face struct {
	def  fontDef
	json []byte
	z    []byte
}

var (
	facesOnce sync.Once
	faces     map[bool]*face
	facesErr  error
)

func loadFaces() (map[bool]*face, error) {
	facesOnce.Do(func() {
		regular, err := newFace(Regular, goregular.TTF, 0)
		if err != nil {
			facesErr = err
			return
		}
		bold, err := newFace(Bold, gobold.TTF, 1<<18)
		if err != nil {
			facesErr = err
			return
		}
		faces = map[bool]*face{false: regular, true: bold}
	})
	return faces, facesErr
}

// newFace measures ttf in thousandths of an em and packages it the way fpdf
// expects a pre-converted TrueType font.
func newFace(name string, ttf []byte, flags int) (*face, error) {
	f, err := sfnt.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	var buf sfnt.Buffer
	em := fixed.I(1000)

	m, err := f.Metrics(&buf, em, font.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("metrics %s: %w", name, err)
	}
	bounds, err := f.Bounds(&buf, em, font.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("bounds %s: %w", name, err)
	}

	cw := make([]int, 256)
	for c := range cw {
		idx, err := f.GlyphIndex(&buf, charmap.Windows1252.DecodeByte(byte(c)))
		if err != nil {
			return nil, fmt.Errorf("glyph %d of %s: %w", c, name, err)
		}
		adv, err := f.GlyphAdvance(&buf, idx, em, font.HintingNone)
		if err != nil {
			return nil, fmt.Errorf("advance %d of %s: %w", c, name, err)
		}
		cw[c] = adv.Round()
	}

	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	if _, err := zw.Write(ttf); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	def := fontDef{
		Tp:   "TrueType",
		Name: name,
		Desc: fontDesc{
			Ascent:    m.Ascent.Round(),
			Descent:   -m.Descent.Round(),
			CapHeight: m.CapHeight.Round(),
			Flags:     32 | flags,
			FontBBox: fontBox{
				Xmin: bounds.Min.X.Round(),
				Ymin: -bounds.Max.Y.Round(),
				Xmax: bounds.Max.X.Round(),
				Ymax: -bounds.Min.Y.Round(),
			},
			StemV:        70,
			MissingWidth: cw[' '],
		},
		Up:           -100,
		Ut:           50,
		Cw:           cw,
		Enc:          "cp1252",
		File:         name + ".z",
		OriginalSize: len(ttf),
	}
	js, err := json.Marshal(def)
	if err != nil {
		return nil, err
	}
	return &face{def: def, json: js, z: z.Bytes()}, nil
}

// encode converts s to the single-byte WinAnsi codes the fonts are set in.
func encode(s string) string {
	out, err := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()).String(s)
	if err != nil {
		return s
	}
	return out
}

// Width is the advance of s in points when set in the regular or bold face.
func Width(bold bool, s string, size float64) float64 {
	fs, err := loadFaces()
	if err != nil {
		panic(err)
	}
	cw := fs[bold].def.Cw
	var w int
	for _, b := range []byte(encode(s)) {
		w += cw[b]
	}
	return float64(w) / 1000 * size
}

// Build serializes pages into a PDF. It panics if the document cannot be
// produced, which only happens on a broken fixture.
func Build(pages ...*Page) []byte {
	fs, err := loadFaces()
	if err != nil {
		panic(err)
	}

	pdf := fpdf.New("P", "pt", "", "")
	pdf.AddFontFromBytes(family, "", fs[false].json, fs[false].z)
	pdf.AddFontFromBytes(family, "B", fs[true].json, fs[true].z)

	for _, p := range pages {
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: p.Width, Ht: p.Height})
		for _, t := range p.Texts {
			style := ""
			if t.Bold {
				style = "B"
			}
			pdf.SetFont(family, style, t.Size)
			pdf.Text(t.X, t.Y, encode(t.S))
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		panic(fmt.Sprintf("testpdf: %v", err))
	}
	return buf.Bytes()
}
