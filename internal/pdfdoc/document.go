// Package pdfdoc adapts a PDF file to the exam.Document interface. Text is
// located with ledongthuc/pdf; mutations and serialization go through pdfcpu.
package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/examcancel/internal/exam"
	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var (
	// ErrInvalidPDF wraps every failure to parse the input document.
	ErrInvalidPDF = errors.New("invalid pdf")
	// ErrClosed is returned by operations on a closed document.
	ErrClosed = errors.New("document closed")
)

// Document is an open PDF. It is not safe for concurrent use.
type Document struct {
	log    *slog.Logger
	ctx    *model.Context
	reader *pdflib.Reader
	pages  map[int]*Page
	closed bool
}

var _ exam.Document = (*Document)(nil)

// Open parses data. Text positions are read from the original bytes; if the
// text reader rejects them, the normalised output of pdfcpu is tried once.
func Open(data []byte, log *slog.Logger) (*Document, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		log.Warn("text reader rejected input, retrying on normalised copy", "error", err)
		var buf bytes.Buffer
		if werr := api.WriteContext(ctx, &buf); werr != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, werr)
		}
		normalised := buf.Bytes()
		reader, err = pdflib.NewReader(bytes.NewReader(normalised), int64(len(normalised)))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
		}
	}

	return &Document{
		log:    log,
		ctx:    ctx,
		reader: reader,
		pages:  make(map[int]*Page),
	}, nil
}

// PageCount returns the number of pages, or 0 once closed.
func (d *Document) PageCount() int {
	if d.closed {
		return 0
	}
	return d.ctx.PageCount
}

// Page returns page n, numbered from 1.
func (d *Document) Page(n int) (exam.Page, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if p, ok := d.pages[n]; ok {
		return p, nil
	}
	if n < 1 || n > d.ctx.PageCount {
		return nil, fmt.Errorf("page %d out of range 1..%d", n, d.ctx.PageCount)
	}

	_, _, inh, err := d.ctx.PageDict(n, false)
	if err != nil {
		return nil, fmt.Errorf("page %d dict: %w", n, err)
	}
	box := visibleBox(inh)
	if box == nil {
		return nil, fmt.Errorf("page %d has no media box", n)
	}

	p := &Page{doc: d, num: n, box: box}
	d.pages[n] = p
	return p, nil
}

func visibleBox(inh *model.InheritedPageAttrs) *types.Rectangle {
	if inh == nil {
		return nil
	}
	if inh.CropBox != nil {
		return inh.CropBox
	}
	return inh.MediaBox
}

// Bytes serializes the document with all mutations applied.
func (d *Document) Bytes() ([]byte, error) {
	if d.closed {
		return nil, ErrClosed
	}
	var buf bytes.Buffer
	if err := api.WriteContext(d.ctx, &buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Close releases the document. It is safe to call more than once.
func (d *Document) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.ctx = nil
	d.reader = nil
	d.pages = nil
	return nil
}

// extract returns the positioned glyphs of page n. A panic inside the text
// reader is reported as an empty page.
func (d *Document) extract(n int) (glyphs []pdflib.Text) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Warn("text extraction failed", "page", n, "panic", fmt.Sprint(r))
			glyphs = nil
		}
	}()
	if n > d.reader.NumPage() {
		return nil
	}
	p := d.reader.Page(n)
	if p.V.IsNull() {
		return nil
	}
	return p.Content().Text
}
