// Package fonts picks the faces used for the text written into documents.
// Fonts are resolved once at startup and handed to the engine and marker.
package fonts

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/image/font/sfnt"
)

// Builtin faces every PDF writer knows. They carry no embedded glyphs for
// characters outside WinAnsi.
const (
	BuiltinRegular = "Helvetica"
	BuiltinBold    = "Helvetica-Bold"
)

// Face is a font usable by the PDF writer.
type Face struct {
	Name    string `json:"name"`
	Path    string `json:"path,omitempty"`
	Builtin bool   `json:"builtin"`
	Missing string `json:"missing,omitempty"`
}

// Set is the pair of faces used for markers (Regular) and notices (Bold).
type Set struct {
	Regular Face `json:"regular"`
	Bold    Face `json:"bold"`
}

// Builtin returns the fallback set.
func Builtin() Set {
	return Set{
		Regular: Face{Name: BuiltinRegular, Builtin: true},
		Bold:    Face{Name: BuiltinBold, Builtin: true},
	}
}

// Info is what Inspect learns about a font file.
type Info struct {
	PostScriptName string
	Missing        []rune
}

// Installer registers a font file with the PDF writer under name.
type Installer func(path, name string) error

// Resolver turns candidate lists into a Set.
type Resolver struct {
	Install Installer
	Log     *slog.Logger
}

// Resolve uses the pdfcpu user font registry.
func Resolve(regular, bold []string, required string, log *slog.Logger) Set {
	r := Resolver{Install: InstallPDFCPU, Log: log}
	return r.Resolve(regular, bold, required)
}

// Resolve tries each candidate list in order. The first existing file is
// used; if it cannot be read or installed the builtin face is used instead.
func (r Resolver) Resolve(regular, bold []string, required string) Set {
	return Set{
		Regular: r.face("regular", regular, BuiltinRegular, required),
		Bold:    r.face("bold", bold, BuiltinBold, required),
	}
}

func (r Resolver) face(weight string, candidates []string, builtin, required string) Face {
	fallback := Face{Name: builtin, Builtin: true}
	path := Pick(candidates)
	if path == "" {
		r.Log.Warn("no font file found, using builtin", "weight", weight, "builtin", builtin, "candidates", candidates)
		return fallback
	}

	info, err := Inspect(path, required)
	if err != nil {
		r.Log.Warn("font unreadable, using builtin", "weight", weight, "path", path, "error", err)
		return fallback
	}
	if err := r.Install(path, info.PostScriptName); err != nil {
		r.Log.Warn("font install failed, using builtin", "weight", weight, "path", path, "error", err)
		return fallback
	}

	f := Face{Name: info.PostScriptName, Path: path}
	if len(info.Missing) > 0 {
		f.Missing = string(info.Missing)
		r.Log.Warn("font lacks glyphs", "weight", weight, "font", f.Name, "missing", f.Missing)
	}
	r.Log.Info("font resolved", "weight", weight, "font", f.Name, "path", path)
	return f
}

// Pick returns the first candidate that is an existing regular file.
func Pick(candidates []string) string {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		fi, err := os.Stat(c)
		if err == nil && fi.Mode().IsRegular() {
			return c
		}
	}
	return ""
}

// Inspect reads the PostScript name of a TrueType/OpenType file (or the first
// face of a collection) and lists the runes of required it has no glyph for.
func Inspect(path, required string) (Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("read font: %w", err)
	}
	f, err := parse(data)
	if err != nil {
		return Info{}, fmt.Errorf("parse font %s: %w", path, err)
	}

	var buf sfnt.Buffer
	name, err := f.Name(&buf, sfnt.NameIDPostScript)
	if err != nil || name == "" {
		return Info{}, fmt.Errorf("font %s has no postscript name", path)
	}

	info := Info{PostScriptName: name}
	seen := make(map[rune]bool)
	for _, ch := range required {
		if unicode.IsSpace(ch) || seen[ch] {
			continue
		}
		seen[ch] = true
		idx, err := f.GlyphIndex(&buf, ch)
		if err != nil || idx == 0 {
			info.Missing = append(info.Missing, ch)
		}
	}
	return info, nil
}

func parse(data []byte) (*sfnt.Font, error) {
	if bytes.HasPrefix(data, []byte("ttcf")) {
		c, err := sfnt.ParseCollection(data)
		if err != nil {
			return nil, err
		}
		if c.NumFonts() == 0 {
			return nil, errors.New("empty collection")
		}
		return c.Font(0)
	}
	return sfnt.Parse(data)
}

// InstallPDFCPU copies the font into pdfcpu's user font directory and checks
// that it is registered under name.
func InstallPDFCPU(path, name string) error {
	// Loading the default configuration sets up the user font directory.
	model.NewDefaultConfiguration()
	if font.UserFontDir == "" {
		return errors.New("pdfcpu user font directory not configured")
	}
	if font.IsUserFont(name) {
		return nil
	}
	if err := api.InstallFonts([]string{path}); err != nil {
		return fmt.Errorf("install %s: %w", path, err)
	}
	if !font.IsUserFont(name) {
		return fmt.Errorf("font %s not registered after install", name)
	}
	return nil
}
