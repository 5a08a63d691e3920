package grammar

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/stackflow/pkg/diagram"
	"github.com/matzehuels/stackflow/pkg/parser/raw"
)

// SyntaxError reports where the grammar rejected the source.
type SyntaxError struct {
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// Document is the result of parsing flowchart statements. It implements
// raw.Interpretation.
type Document struct {
	Direction diagram.Direction
	vertices  []raw.Vertex
	edges     []raw.Edge
	subgraphs []raw.Subgraph
}

func (d *Document) Vertices() []raw.Vertex { return d.vertices }
func (d *Document) Edges() []raw.Edge { return d.edges }
func (d *Document) Subgraphs() []raw.Subgraph { return d.subgraphs }

// FlowDirection returns the direction of a "graph"/"flowchart" line found in
// the body, if any.
func (d *Document) FlowDirection() diagram.Direction { return d.Direction }

// Interpreter is the default grammar. It is stateless and safe for
// concurrent use.
type Interpreter struct{}

// Interpret parses src, which must already be preprocessed, and returns its
// records. Any syntax problem is reported as a *SyntaxError.
func (Interpreter) Interpret(ctx context.Context, src string) (raw.Interpretation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Parse(src)
}

// Parse lexes and parses flowchart statements.
//
// Vertices are reported in first-mention order; a later shaped declaration
// replaces the text and shape of an earlier one. Every vertex mentioned inside
// a subgraph is listed as its member, and a closed nested subgraph is listed
// as a member of its parent.
func Parse(src string) (*Document, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{
		tokens:    tokens,
		doc:       &Document{},
		vertexIdx: make(map[string]int),
		sgIdx:     make(map[string]int),
	}
	if err := p.document(); err != nil {
		return nil, err
	}
	return p.doc, nil
}

type parser struct {
	tokens    []Token
	pos       int
	doc       *Document
	vertexIdx map[string]int
	sgIdx     map[string]int
	stack     []int // open subgraphs, innermost last
}

func (p *parser) peek() Token { return p.tokens[p.pos] }

func (p *parser) next() Token {
	t := p.tokens[p.pos]
	if t.Type != TokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t Token, format string, args ...any) error {
	return &SyntaxError{Line: t.Line, Col: t.Col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) document() error {
	for {
		t := p.peek()
		switch t.Type {
		case TokenEOF:
			if len(p.stack) > 0 {
				sg := p.doc.subgraphs[p.stack[len(p.stack)-1]]
				return p.errorf(t, "subgraph %q is not closed", sg.ID)
			}
			return nil
		case TokenNewline:
			p.next()
			continue
		}
		if err := p.statement(); err != nil {
			return err
		}
		if t := p.peek(); t.Type != TokenNewline && t.Type != TokenEOF {
			return p.errorf(t, "unexpected %s", t.Type)
		}
	}
}

func (p *parser) statement() error {
	t := p.peek()
	switch t.Type {
	case TokenRaw:
		p.next()
		return nil
	case TokenIdent:
	default:
		return p.errorf(t, "unexpected %s at start of statement", t.Type)
	}

	switch {
	case t.Value == "subgraph":
		p.next()
		return p.subgraph(t)
	case strings.EqualFold(t.Value, "end") && p.isLone():
		p.next()
		return p.end(t)
	case t.Value == "direction":
		p.next()
		d := p.next()
		if _, ok := diagram.ParseDirection(d.Value); d.Type != TokenIdent || !ok {
			return p.errorf(d, "invalid direction %q", d.Value)
		}
		return nil
	case (t.Value == "graph" || t.Value == "flowchart") && len(p.doc.vertices) == 0 && p.pos == 0 && p.isHeader():
		p.next()
		if d := p.peek(); d.Type == TokenIdent {
			if dir, ok := diagram.ParseDirection(d.Value); ok {
				p.next()
				p.doc.Direction = dir
			}
		}
		return nil
	}
	return p.chain()
}

// isLone reports whether the current identifier is the whole statement.
// isHeader reports whether the keyword at the cursor starts a declaration
// rather than naming a node.
func (p *parser) isHeader() bool {
	n := p.tokens[p.pos+1].Type
	return n == TokenIdent || n == TokenNewline || n == TokenEOF
}

func (p *parser) isLone() bool {
	n := p.tokens[p.pos+1].Type
	return n == TokenNewline || n == TokenEOF
}

// subgraph parses a header: an id, an id with a bracketed or quoted title, a
// quoted title alone, or a run of words used as both.
func (p *parser) subgraph(kw Token) error {
	var id, title string
	switch t := p.next(); t.Type {
	case TokenString:
		id, title = slug(t.Value), t.Value
	case TokenIdent:
		id, title = t.Value, t.Value
		switch n := p.peek(); n.Type {
		case TokenShape:
			p.next()
			title = n.Value
		case TokenString:
			p.next()
			title = n.Value
		case TokenIdent:
			words := []string{t.Value}
			for p.peek().Type == TokenIdent {
				words = append(words, p.next().Value)
			}
			title = strings.Join(words, " ")
			id = slug(title)
		}
	default:
		return p.errorf(kw, "subgraph needs an id or title")
	}

	if len(p.stack) > 0 {
		p.member(p.stack[len(p.stack)-1], id)
	}
	i, ok := p.sgIdx[id]
	if !ok {
		i = len(p.doc.subgraphs)
		p.sgIdx[id] = i
		p.doc.subgraphs = append(p.doc.subgraphs, raw.Subgraph{ID: id, Title: title})
	}
	p.stack = append(p.stack, i)
	return nil
}

func (p *parser) end(t Token) error {
	if len(p.stack) == 0 {
		return p.errorf(t, "end without subgraph")
	}
	p.stack = p.stack[:len(p.stack)-1]
	return nil
}

// chain parses "group (link group)*" where a group is "vertex (& vertex)*".
func (p *parser) chain() error {
	from, err := p.group()
	if err != nil {
		return err
	}
	for p.peek().Type == TokenLink {
		lt := p.next()
		link := lt.Link
		if p.peek().Type == TokenPipeLabel {
			link.Label = p.next().Value
		}
		to, err := p.group()
		if err != nil {
			return err
		}
		for _, a := range from {
			for _, b := range to {
				p.doc.edges = append(p.doc.edges, raw.Edge{
					Source:   a,
					Target:   b,
					Text:     link.Label,
					Stroke:   link.Stroke,
					Directed: link.Directed,
				})
			}
		}
		from = to
	}
	return nil
}

func (p *parser) group() ([]string, error) {
	var ids []string
	for {
		id, err := p.vertex()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
		if p.peek().Type != TokenAmp {
			return ids, nil
		}
		p.next()
	}
}

func (p *parser) vertex() (string, error) {
	t := p.next()
	if t.Type != TokenIdent {
		return "", p.errorf(t, "expected node id, got %s", t.Type)
	}
	if t.Value == "end" || t.Value == "subgraph" {
		return "", p.errorf(t, "%q is reserved", t.Value)
	}
	v := raw.Vertex{ID: t.Value, Implicit: true}
	if s := p.peek(); s.Type == TokenShape {
		p.next()
		v.Text, v.Shape, v.Implicit = s.Value, s.Shape, false
	}
	for p.peek().Type == TokenClass {
		v.Classes = append(v.Classes, p.next().Value)
	}
	p.addVertex(v)
	return v.ID, nil
}

func (p *parser) addVertex(v raw.Vertex) {
	if _, isSubgraph := p.sgIdx[v.ID]; isSubgraph && v.Implicit {
		return
	}
	if i, ok := p.vertexIdx[v.ID]; ok {
		cur := &p.doc.vertices[i]
		if !v.Implicit {
			cur.Text, cur.Shape, cur.Implicit = v.Text, v.Shape, false
		}
		cur.Classes = append(cur.Classes, v.Classes...)
	} else {
		p.vertexIdx[v.ID] = len(p.doc.vertices)
		p.doc.vertices = append(p.doc.vertices, v)
	}
	if len(p.stack) > 0 {
		p.member(p.stack[len(p.stack)-1], v.ID)
	}
}

func (p *parser) member(sg int, id string) {
	s := &p.doc.subgraphs[sg]
	if id == s.ID || slices.Contains(s.Members, id) {
		return
	}
	s.Members = append(s.Members, id)
}

func slug(s string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.TrimSpace(s) {
		if isIdentRune(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	out := strings.TrimRight(b.String(), "_")
	if out == "" {
		return "subgraph"
	}
	return out
}
