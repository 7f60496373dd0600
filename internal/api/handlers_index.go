package api

import (
	"bytes"
	_ "embed"
	"fmt"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
	xhtml "golang.org/x/net/html"
)

//go:embed assets/index.md
var indexMarkdown []byte

const pageShell = `<!doctype html>
<html lang="tr">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 40rem; margin: 2rem auto; padding: 0 1rem; }
input[type=text] { width: 100%%; }
</style>
</head>
<body>
%s</body>
</html>
`

// renderIndex turns the embedded Markdown into a complete HTML page. The
// page title is taken from the first heading.
func renderIndex(src []byte) ([]byte, error) {
	md := goldmark.New(goldmark.WithRendererOptions(html.WithUnsafe()))
	var body bytes.Buffer
	if err := md.Convert(src, &body); err != nil {
		return nil, fmt.Errorf("render index: %w", err)
	}

	title := "examcancel"
	if doc, err := xhtml.Parse(bytes.NewReader(body.Bytes())); err == nil {
		if h := findElement(doc, "h1"); h != nil {
			if t := strings.TrimSpace(textContent(h)); t != "" {
				title = t
			}
		}
	}
	return fmt.Appendf(nil, pageShell, xhtml.EscapeString(title), body.String()), nil
}

func findElement(n *xhtml.Node, tag string) *xhtml.Node {
	if n.Type == xhtml.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *xhtml.Node) string {
	var sb strings.Builder
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(s.index)
}
