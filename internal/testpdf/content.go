package testpdf

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Op is one content stream operator with its operands as raw tokens.
type Op struct {
	Name string
	Args []string
}

// Float returns operand i as a number, or 0 when it is not one.
func (o Op) Float(i int) float64 {
	if i < 0 || i >= len(o.Args) {
		return 0
	}
	v, _ := strconv.ParseFloat(o.Args[i], 64)
	return v
}

// Content is the decoded drawing of one page: its content streams in order
// and the form XObjects in its resources, keyed by resource name.
type Content struct {
	Ops   []Op
	Forms map[string][]Op
}

// Index returns the position of the first op named name at or after from,
// or -1.
func (c *Content) Index(name string, from int) int {
	for i := max(from, 0); i < len(c.Ops); i++ {
		if c.Ops[i].Name == name {
			return i
		}
	}
	return -1
}

// All returns every op named name.
func (c *Content) All(name string) []Op {
	var out []Op
	for _, op := range c.Ops {
		if op.Name == name {
			out = append(out, op)
		}
	}
	return out
}

// ReadPage decodes page n of data.
func ReadPage(data []byte, n int) (*Content, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, err
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, err
	}
	pd, _, inh, err := ctx.PageDict(n, false)
	if err != nil {
		return nil, err
	}

	c := &Content{Forms: make(map[string][]Op)}
	if obj, ok := pd.Find("Contents"); ok {
		streams, err := contentStreams(ctx, obj)
		if err != nil {
			return nil, err
		}
		for _, sd := range streams {
			raw, err := decoded(sd)
			if err != nil {
				return nil, err
			}
			c.Ops = append(c.Ops, Lex(raw)...)
		}
	}

	res := inh.Resources
	if obj, ok := pd.Find("Resources"); ok {
		d, err := ctx.DereferenceDict(obj)
		if err != nil {
			return nil, err
		}
		if d != nil {
			res = d
		}
	}
	if res == nil {
		return c, nil
	}
	xobj, ok := res.Find("XObject")
	if !ok {
		return c, nil
	}
	forms, err := ctx.DereferenceDict(xobj)
	if err != nil {
		return nil, err
	}
	for name, ref := range forms {
		sd, _, err := ctx.DereferenceStreamDict(ref)
		if err != nil {
			return nil, err
		}
		if sd == nil {
			continue
		}
		raw, err := decoded(sd)
		if err != nil {
			return nil, fmt.Errorf("form %s: %w", name, err)
		}
		c.Forms[name] = Lex(raw)
	}
	return c, nil
}

func contentStreams(ctx *model.Context, obj types.Object) ([]*types.StreamDict, error) {
	v, err := ctx.Dereference(obj)
	if err != nil {
		return nil, err
	}
	if arr, ok := v.(types.Array); ok {
		var out []*types.StreamDict
		for _, el := range arr {
			sd, _, err := ctx.DereferenceStreamDict(el)
			if err != nil {
				return nil, err
			}
			if sd != nil {
				out = append(out, sd)
			}
		}
		return out, nil
	}
	sd, _, err := ctx.DereferenceStreamDict(obj)
	if err != nil {
		return nil, err
	}
	if sd == nil {
		return nil, nil
	}
	return []*types.StreamDict{sd}, nil
}

func decoded(sd *types.StreamDict) ([]byte, error) {
	if err := sd.Decode(); err != nil {
		return nil, err
	}
	if sd.Content == nil {
		return sd.Raw, nil
	}
	return sd.Content, nil
}

// Lex splits a content stream into operators. Strings, names, arrays and
// dictionaries are kept as single operand tokens.
func Lex(b []byte) []Op {
	var (
		ops  []Op
		args []string
	)
	i := 0
	for i < len(b) {
		c := b[i]
		switch {
		case isSpace(c):
			i++
		case c == '%':
			for i < len(b) && b[i] != '\n' && b[i] != '\r' {
				i++
			}
		case c == '(':
			j := skipString(b, i)
			args = append(args, string(b[i:j]))
			i = j
		case c == '<' && i+1 < len(b) && b[i+1] == '<':
			j := skipDict(b, i)
			args = append(args, string(b[i:j]))
			i = j
		case c == '<':
			j := bytes.IndexByte(b[i:], '>')
			if j < 0 {
				j = len(b) - i - 1
			}
			args = append(args, string(b[i:i+j+1]))
			i += j + 1
		case c == '[':
			j := skipArray(b, i)
			args = append(args, string(b[i:j]))
			i = j
		case c == '/':
			j := i + 1
			for j < len(b) && !isSpace(b[j]) && !isDelim(b[j]) {
				j++
			}
			args = append(args, string(b[i:j]))
			i = j
		default:
			j := i
			for j < len(b) && !isSpace(b[j]) && !isDelim(b[j]) {
				j++
			}
			if j == i {
				j++
			}
			tok := string(b[i:j])
			i = j
			if isOperand(tok) {
				args = append(args, tok)
				continue
			}
			ops = append(ops, Op{Name: tok, Args: args})
			args = nil
		}
	}
	return ops
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', 0:
		return true
	}
	return false
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isOperand(tok string) bool {
	switch tok {
	case "true", "false", "null":
		return true
	}
	_, err := strconv.ParseFloat(tok, 64)
	return err == nil
}

func skipString(b []byte, i int) int {
	depth := 0
	for ; i < len(b); i++ {
		switch b[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(b)
}

func skipDict(b []byte, i int) int {
	depth := 0
	for i < len(b) {
		switch {
		case b[i] == '(':
			i = skipString(b, i)
			continue
		case b[i] == '<' && i+1 < len(b) && b[i+1] == '<':
			depth++
			i += 2
			continue
		case b[i] == '>' && i+1 < len(b) && b[i+1] == '>':
			depth--
			i += 2
			if depth == 0 {
				return i
			}
			continue
		}
		i++
	}
	return len(b)
}

func skipArray(b []byte, i int) int {
	depth := 0
	for i < len(b) {
		switch b[i] {
		case '(':
			i = skipString(b, i)
			continue
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
		i++
	}
	return len(b)
}
