package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/examcancel/internal/exam"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "API_KEY", "MAX_UPLOAD_BYTES", "MAX_CONCURRENT_DOCS", "RUN_TTL",
		"STATS_WINDOW", "FONT_REGULAR_CANDIDATES", "FONT_BOLD_CANDIDATES", "CONFIG_FILE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.MaxUploadBytes != 52428800 {
		t.Errorf("expected 50MB upload limit, got %d", cfg.MaxUploadBytes)
	}
	if cfg.MaxConcurrentDocs != 4 {
		t.Errorf("expected 4 concurrent docs, got %d", cfg.MaxConcurrentDocs)
	}
	if cfg.RunTTL != time.Hour || cfg.StatsWindow != time.Hour {
		t.Errorf("expected 1h ttl and window, got %v and %v", cfg.RunTTL, cfg.StatsWindow)
	}
	if !reflect.DeepEqual(cfg.RegularFonts, DefaultRegularFonts) {
		t.Errorf("expected default regular fonts, got %v", cfg.RegularFonts)
	}
	if cfg.Layout != exam.DefaultParams() || cfg.Strings != exam.DefaultStrings() {
		t.Error("expected default template")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad_EnvOverridesAndClamps(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("MAX_CONCURRENT_DOCS", "-2")
	t.Setenv("RUN_TTL", "5m")
	t.Setenv("MAX_UPLOAD_BYTES", "not-a-number")
	t.Setenv("FONT_REGULAR_CANDIDATES", " /a.ttf , ,/b.ttc")

	cfg := Load()
	if cfg.Port != "9000" {
		t.Errorf("expected port 9000, got %q", cfg.Port)
	}
	if cfg.MaxConcurrentDocs != 4 {
		t.Errorf("expected non-positive limit to fall back to 4, got %d", cfg.MaxConcurrentDocs)
	}
	if cfg.RunTTL != 5*time.Minute {
		t.Errorf("expected 5m ttl, got %v", cfg.RunTTL)
	}
	if cfg.MaxUploadBytes != 52428800 {
		t.Errorf("expected unparsable limit to fall back, got %d", cfg.MaxUploadBytes)
	}
	if want := []string{"/a.ttf", "/b.ttc"}; !reflect.DeepEqual(cfg.RegularFonts, want) {
		t.Errorf("expected %v, got %v", want, cfg.RegularFonts)
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "examcancel.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestApplyFile_OverlaysTemplate(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	path := writeFile(t, `
fonts:
  regular: [/opt/fonts/Regular.ttf]
layout:
  margin: 40
  footer_reserve: 72
strings:
  notice: "This question was cancelled"
  heading: "Answer Key"
`)
	if err := cfg.ApplyFile(path); err != nil {
		t.Fatalf("apply file: %v", err)
	}
	if cfg.Layout.Margin != 40 || cfg.Layout.FooterReserve != 72 {
		t.Errorf("expected overlaid layout, got %+v", cfg.Layout)
	}
	if cfg.Layout.Gutter != 20 || cfg.Layout.MarkerLift != 0.7 {
		t.Errorf("expected untouched keys to keep defaults, got %+v", cfg.Layout)
	}
	if cfg.Strings.Notice != "This question was cancelled" || cfg.Strings.Heading != "Answer Key" {
		t.Errorf("expected overlaid strings, got %+v", cfg.Strings)
	}
	if cfg.Strings.Marker != "İ" {
		t.Errorf("expected default marker, got %q", cfg.Strings.Marker)
	}
	if !reflect.DeepEqual(cfg.RegularFonts, []string{"/opt/fonts/Regular.ttf"}) {
		t.Errorf("expected file fonts, got %v", cfg.RegularFonts)
	}
	if !reflect.DeepEqual(cfg.BoldFonts, DefaultBoldFonts) {
		t.Errorf("expected default bold fonts, got %v", cfg.BoldFonts)
	}
}

func TestApplyFile_EnvFontsWin(t *testing.T) {
	clearEnv(t)
	t.Setenv("FONT_BOLD_CANDIDATES", "/env/Bold.ttf")
	cfg := Load()
	path := writeFile(t, "fonts:\n  regular: [/file/Regular.ttf]\n  bold: [/file/Bold.ttf]\n")
	if err := cfg.ApplyFile(path); err != nil {
		t.Fatalf("apply file: %v", err)
	}
	if !reflect.DeepEqual(cfg.BoldFonts, []string{"/env/Bold.ttf"}) {
		t.Errorf("expected env bold fonts, got %v", cfg.BoldFonts)
	}
	if !reflect.DeepEqual(cfg.RegularFonts, DefaultRegularFonts) {
		t.Errorf("expected default regular fonts, got %v", cfg.RegularFonts)
	}
}

func TestApplyFile_Errors(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	if err := cfg.ApplyFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if err := cfg.ApplyFile(writeFile(t, "layout: [unterminated")); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	cfg.Strings.Marker = "XY"
	cfg.Strings.Notice = ""
	cfg.Layout.RowDecimals = 9
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"strings.marker", "strings.notice", "layout.row_decimals"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s, got %v", want, err)
		}
	}
}
