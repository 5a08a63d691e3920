package parser

import (
	"context"
	"io"
	"regexp"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackflow/pkg/diagram"
	"github.com/matzehuels/stackflow/pkg/parser/raw"
)

// shapeCloser ends a bracket form and decides its shape.
type shapeCloser struct {
	close string
	shape diagram.Shape
}

// shapeForm is one bracket opener with the closers it accepts.
type shapeForm struct {
	open    string
	closers []shapeCloser
}

// shapeForms is ordered compound-first so that "[(" is never read as a
// square bracket around a round one.
var shapeForms = []shapeForm{
	{"(((", []shapeCloser{{")))", diagram.ShapeDoubleCircle}}},
	{"[(", []shapeCloser{{")]", diagram.ShapeCylinder}}},
	{"([", []shapeCloser{{"])", diagram.ShapeStadium}}},
	{"((", []shapeCloser{{"))", diagram.ShapeCircle}}},
	{"[[", []shapeCloser{{"]]", diagram.ShapeSubroutine}}},
	{"{{", []shapeCloser{{"}}", diagram.ShapeHexagon}}},
	{"[/", []shapeCloser{{"/]", diagram.ShapeParallelogram}, {`\]`, diagram.ShapeTrapezoid}}},
	{`[\`, []shapeCloser{{`\]`, diagram.ShapeParallelogramAlt}, {"/]", diagram.ShapeTrapezoidAlt}}},
	{"[", []shapeCloser{{"]", diagram.ShapeSquare}}},
	{"(", []shapeCloser{{")", diagram.ShapeRound}}},
	{"{", []shapeCloser{{"}", diagram.ShapeDiamond}}},
}

// asymmetricClosers ends the flag form, whose ">" opener must touch the id.
var asymmetricClosers = []shapeCloser{{"]", diagram.ShapeAsymmetric}}

// connector recognizes one link form at the current position. When label is
// true, group 1 of re is the inline label.
type connector struct {
	re       *regexp.Regexp
	stroke   diagram.StrokeStyle
	directed bool
	label    bool
}

// connectors is ordered from most to least specific: circle and cross
// heads, labeled dotted, dotted, labeled thick, thick, labeled arrow, arrow,
// then open and invisible links.
var connectors = []connector{
	{regexp.MustCompile(`^\s*<?-\.+-[ox](?:\s|$)`), diagram.StrokeDotted, true, false},
	{regexp.MustCompile(`^\s*<?==+[ox](?:\s|$)`), diagram.StrokeThick, true, false},
	{regexp.MustCompile(`^\s*<?--+[ox](?:\s|$)`), diagram.StrokeSolid, true, false},
	{regexp.MustCompile(`^\s*<?-\.\s*([^-.|>\s](?:[^.|]|\.[^-|])*?)\s*\.-+>`), diagram.StrokeDotted, true, true},
	{regexp.MustCompile(`^\s*<?-\.+->`), diagram.StrokeDotted, true, false},
	{regexp.MustCompile(`^\s*-\.+-`), diagram.StrokeDotted, false, false},
	{regexp.MustCompile(`^\s*<?==\s*([^=|>\s](?:[^=|]|=[^=|])*?)\s*==+>`), diagram.StrokeThick, true, true},
	{regexp.MustCompile(`^\s*<?==+>`), diagram.StrokeThick, true, false},
	{regexp.MustCompile(`^\s*<?--\s*([^-|>.\s](?:[^-|]|-[^-|])*?)\s*--+>`), diagram.StrokeSolid, true, true},
	{regexp.MustCompile(`^\s*<?--+>`), diagram.StrokeSolid, true, false},
	{regexp.MustCompile(`^\s*--\s*([^-|>.\s](?:[^-|]|-[^-|])*?)\s*---+`), diagram.StrokeSolid, false, true},
	{regexp.MustCompile(`^\s*===+`), diagram.StrokeThick, false, false},
	{regexp.MustCompile(`^\s*---+`), diagram.StrokeSolid, false, false},
	{regexp.MustCompile(`^\s*~~~+`), diagram.StrokeSolid, false, false},
}

// identPattern matches the ids the grammar accepts: word runs joined by
// single inner dashes. "node-1" is one id; in "A-->B" the dash starts a link.
const identPattern = `[\p{L}\p{Nd}_]+(?:-[\p{L}\p{Nd}_]+)*`

var (
	identRe        = regexp.MustCompile(`^` + identPattern)
	endpointRe     = regexp.MustCompile(`^\s*(` + identPattern + `(?:\s*&\s*` + identPattern + `)*)`)
	pipeLabelRe    = regexp.MustCompile(`^\s*\|([^|]*)\|`)
	classSuffixRe  = regexp.MustCompile(`:::[\w-]+`)
	bareIDRe       = regexp.MustCompile(`^` + identPattern + `$`)
	endLineRe      = regexp.MustCompile(`(?i)^end$`)
	subgraphLineRe = regexp.MustCompile(`(?i)^subgraph\s+(.+?)\s*$`)
	skipLineRe     = regexp.MustCompile(`^(direction|classDef|class|style|linkStyle|click|accTitle|accDescr)\b`)

	subgraphQuotedRe  = regexp.MustCompile(`^"([^"]*)"$`)
	subgraphBracketRe = regexp.MustCompile(`^([\w-]+)\s*\[\s*"?(.*?)"?\s*\]$`)
	subgraphIDTitleRe = regexp.MustCompile(`^([\w-]+)\s+"([^"]*)"$`)
	subgraphIDRe      = regexp.MustCompile(`^[\w-]+$`)
	slugRe            = regexp.MustCompile(`[^\w]+`)
)

// Fallback is the heuristic parser. It recognizes node, edge and subgraph
// syntax line by line with ordered patterns and a bracket scanner instead of
// a grammar, so it recovers a usable graph from text the grammar rejects.
//
// Fallback satisfies [Grammar] and is safe for concurrent use.
type Fallback struct {
	Logger *log.Logger
}

// NewFallback returns a fallback parser that logs to logger.
func NewFallback(logger *log.Logger) *Fallback {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Fallback{Logger: logger}
}

// Interpret scans preprocessed source. It never fails on malformed text; it
// returns an error only when ctx is done.
func (f *Fallback) Interpret(ctx context.Context, src string) (raw.Interpretation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := newScan()
	for _, line := range strings.Split(src, "\n") {
		for _, stmt := range splitStatements(line) {
			s.statement(stmt)
		}
	}
	f.Logger.Debug("fallback parse",
		"vertices", len(s.rec.V),
		"edges", len(s.rec.E),
		"subgraphs", len(s.rec.S))
	return &s.rec, nil
}

// scan is the mutable state of one fallback run.
type scan struct {
	rec       raw.Records
	vertices  map[string]int
	subgraphs map[string]int
	open      int // index into rec.S, -1 when no scope is open
}

func newScan() *scan {
	return &scan{
		vertices:  make(map[string]int),
		subgraphs: make(map[string]int),
		open:      -1,
	}
}

func (s *scan) statement(line string) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return
	case endLineRe.MatchString(line):
		s.open = -1
		return
	case skipLineRe.MatchString(line):
		return
	}
	if m := subgraphLineRe.FindStringSubmatch(line); m != nil {
		s.openScope(m[1])
		return
	}

	line = classSuffixRe.ReplaceAllString(line, "")
	skeleton := s.declarations(line)

	if bareIDRe.MatchString(skeleton) {
		s.reference(skeleton)
		return
	}
	s.links(skeleton)
}

// openScope starts a subgraph. An already open scope is replaced.
func (s *scan) openScope(header string) {
	id, title := subgraphHeader(header)
	if i, ok := s.subgraphs[id]; ok {
		s.open = i
		return
	}
	s.subgraphs[id] = len(s.rec.S)
	s.open = len(s.rec.S)
	s.rec.S = append(s.rec.S, raw.Subgraph{ID: id, Title: title})
}

func subgraphHeader(h string) (id, title string) {
	if m := subgraphQuotedRe.FindStringSubmatch(h); m != nil {
		return slug(m[1]), m[1]
	}
	if m := subgraphBracketRe.FindStringSubmatch(h); m != nil {
		return m[1], m[2]
	}
	if m := subgraphIDTitleRe.FindStringSubmatch(h); m != nil {
		return m[1], m[2]
	}
	if subgraphIDRe.MatchString(h) {
		return h, h
	}
	return slug(h), h
}

func slug(s string) string {
	s = strings.Trim(slugRe.ReplaceAllString(strings.TrimSpace(s), "_"), "_")
	if s == "" {
		return "subgraph"
	}
	return s
}

// declarations registers every node declaration in line and returns the line
// with each declaration reduced to its bare id. Links and pipe labels are
// copied through untouched so text inside them is never read as a node.
func (s *scan) declarations(line string) string {
	var sb strings.Builder
	for i := 0; i < len(line); {
		rest := line[i:]
		if n := linkSpan(rest); n > 0 {
			sb.WriteString(rest[:n])
			i += n
			continue
		}
		if id := identRe.FindString(rest); id != "" {
			i += len(id)
			i += s.shape(id, line[i:])
			sb.WriteString(id)
			continue
		}
		sb.WriteByte(line[i])
		i++
	}
	return sb.String()
}

// linkSpan returns the length of the connector or pipe label at the start of
// rest, or 0.
func linkSpan(rest string) int {
	switch rest[0] {
	case '|':
		if end := strings.IndexByte(rest[1:], '|'); end >= 0 {
			return end + 2
		}
		return 0
	case '-', '=', '<', '~':
		_, _, n := matchConnector(rest)
		return n
	}
	return 0
}

// shape declares id when rest opens a bracket form, and returns the number of
// bytes of rest the declaration used.
func (s *scan) shape(id, rest string) int {
	if strings.HasPrefix(rest, ">") {
		if text, n, sh, ok := shapeBody(rest[1:], asymmetricClosers); ok {
			s.declare(id, text, sh)
			return 1 + n
		}
		return 0
	}
	lead := len(rest) - len(strings.TrimLeft(rest, " \t"))
	body := rest[lead:]
	for _, f := range shapeForms {
		if !strings.HasPrefix(body, f.open) {
			continue
		}
		if text, n, sh, ok := shapeBody(body[len(f.open):], f.closers); ok {
			s.declare(id, text, sh)
			return lead + len(f.open) + n
		}
	}
	return 0
}

// bodyScan selects what [scanBody] treats as opaque.
type bodyScan struct {
	quotes bool
	nested bool
}

// bodyScans goes from strict to lenient: an unterminated quote or an
// unbalanced bracket inside a label falls back to the first closer.
var bodyScans = []bodyScan{{quotes: true, nested: true}, {nested: true}, {}}

// shapeBody finds the closer ending body and returns the label before it and
// the bytes consumed.
func shapeBody(body string, closers []shapeCloser) (string, int, diagram.Shape, bool) {
	for _, mode := range bodyScans {
		if text, n, sh, ok := scanBody(body, closers, mode); ok {
			return unquoteLabel(text), n, sh, true
		}
	}
	return "", 0, "", false
}

func scanBody(body string, closers []shapeCloser, mode bodyScan) (string, int, diagram.Shape, bool) {
	depth := 0
	quoted := false
	for i := 0; i < len(body); i++ {
		c := body[i]
		if mode.quotes && c == '"' {
			quoted = !quoted
			continue
		}
		if quoted {
			continue
		}
		if depth == 0 {
			for _, cl := range closers {
				if strings.HasPrefix(body[i:], cl.close) {
					return body[:i], i + len(cl.close), cl.shape, true
				}
			}
		}
		if !mode.nested {
			continue
		}
		switch c {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			if depth > 0 {
				depth--
			}
		}
	}
	return "", 0, "", false
}

// unquoteLabel strips the quotes of a fully quoted label.
func unquoteLabel(text string) string {
	t := strings.TrimSpace(text)
	if len(t) >= 2 && t[0] == '"' && t[len(t)-1] == '"' {
		return t[1 : len(t)-1]
	}
	return text
}

// declare registers an explicit node. A repeated declaration is a no-op,
// except that it upgrades a node previously created from an edge reference.
func (s *scan) declare(id, text string, shape diagram.Shape) {
	if i, ok := s.vertices[id]; ok {
		if s.rec.V[i].Implicit {
			s.rec.V[i] = raw.Vertex{ID: id, Text: text, Shape: shape}
		}
		s.join(id)
		return
	}
	s.vertices[id] = len(s.rec.V)
	s.rec.V = append(s.rec.V, raw.Vertex{ID: id, Text: text, Shape: shape})
	s.join(id)
}

// reference registers id as an implicit node if it is unknown. New nodes
// join the open scope.
func (s *scan) reference(id string) {
	if _, ok := s.vertices[id]; ok {
		return
	}
	if _, ok := s.subgraphs[id]; ok {
		return
	}
	s.vertices[id] = len(s.rec.V)
	s.rec.V = append(s.rec.V, raw.Vertex{ID: id, Implicit: true})
	s.join(id)
}

// join appends id to the open scope's member list once.
func (s *scan) join(id string) {
	if s.open < 0 {
		return
	}
	sg := &s.rec.S[s.open]
	if id == sg.ID || slices.Contains(sg.Members, id) {
		return
	}
	sg.Members = append(sg.Members, id)
}

// links reads an edge chain such as "A & B --> C -- label --- D" from a
// skeleton line.
func (s *scan) links(skel string) {
	m := endpointRe.FindStringSubmatch(skel)
	if m == nil {
		return
	}
	from := splitEndpoints(m[1])
	rest := skel[len(m[0]):]

	for {
		c, label, n := matchConnector(rest)
		if n == 0 {
			return
		}
		rest = rest[n:]
		if pm := pipeLabelRe.FindStringSubmatch(rest); pm != nil {
			label = pm[1]
			rest = rest[len(pm[0]):]
		}
		tm := endpointRe.FindStringSubmatch(rest)
		if tm == nil {
			return
		}
		to := splitEndpoints(tm[1])
		rest = rest[len(tm[0]):]

		for _, a := range from {
			s.reference(a)
		}
		for _, b := range to {
			s.reference(b)
		}
		for _, a := range from {
			for _, b := range to {
				s.rec.E = append(s.rec.E, raw.Edge{
					Source:   a,
					Target:   b,
					Text:     label,
					Stroke:   c.stroke,
					Directed: c.directed,
				})
			}
		}
		from = to
	}
}

func matchConnector(rest string) (connector, string, int) {
	for _, c := range connectors {
		m := c.re.FindStringSubmatch(rest)
		if m == nil {
			continue
		}
		label := ""
		if c.label {
			label = m[1]
		}
		return c, label, len(m[0])
	}
	return connector{}, "", 0
}

func splitEndpoints(s string) []string {
	parts := strings.Split(s, "&")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitStatements splits a line on ";" outside brackets, quotes and pipe
// labels.
func splitStatements(line string) []string {
	var (
		out   []string
		depth int
		quote bool
		pipe  bool
		start int
	)
	for i, r := range line {
		switch r {
		case '"':
			quote = !quote
		case '|':
			if !quote {
				pipe = !pipe
			}
		case '[', '(', '{':
			if !quote && !pipe {
				depth++
			}
		case ']', ')', '}':
			if !quote && !pipe && depth > 0 {
				depth--
			}
		case ';':
			if depth == 0 && !quote && !pipe {
				out = append(out, line[start:i])
				start = i + 1
			}
		}
	}
	return append(out, line[start:])
}
