package grammar

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/matzehuels/stackflow/pkg/diagram"
)

// TokenType identifies the kind of a lexical token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNewline
	TokenIdent
	TokenString
	TokenShape
	TokenLink
	TokenPipeLabel
	TokenAmp
	TokenClass
	TokenRaw
)

var tokenNames = [...]string{
	TokenEOF:       "EOF",
	TokenNewline:   "newline",
	TokenIdent:     "identifier",
	TokenString:    "string",
	TokenShape:     "shape",
	TokenLink:      "link",
	TokenPipeLabel: "pipe label",
	TokenAmp:       "&",
	TokenClass:     "class",
	TokenRaw:       "statement",
}

func (t TokenType) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Link describes a connector token.
type Link struct {
	Stroke   diagram.StrokeStyle
	Directed bool
	Label    string // inline "-- text -->" label
}

// Token is one lexical unit. Value holds identifier names, string and shape
// text, pipe labels and class names.
type Token struct {
	Type  TokenType
	Value string
	Shape diagram.Shape
	Link  Link
	Line  int
	Col   int
}

// rawKeywords start statements whose remainder is not tokenized.
var rawKeywords = map[string]bool{
	"classDef":  true,
	"class":     true,
	"style":     true,
	"linkStyle": true,
	"click":     true,
	"accTitle":  true,
	"accDescr":  true,
}

// shapeDelims lists bracket forms, compound first.
var shapeDelims = []struct {
	open, close string
	shape       diagram.Shape
}{
	{"(((", ")))", diagram.ShapeDoubleCircle},
	{"((", "))", diagram.ShapeCircle},
	{"([", "])", diagram.ShapeStadium},
	{"[(", ")]", diagram.ShapeCylinder},
	{"[[", "]]", diagram.ShapeSubroutine},
	{"{{", "}}", diagram.ShapeHexagon},
	{"[/", "/]", diagram.ShapeParallelogram},
	{"[/", "\\]", diagram.ShapeTrapezoid},
	{"[\\", "\\]", diagram.ShapeParallelogramAlt},
	{"[\\", "/]", diagram.ShapeTrapezoidAlt},
	{"[", "]", diagram.ShapeSquare},
	{"(", ")", diagram.ShapeRound},
	{"{", "}", diagram.ShapeDiamond},
	{">", "]", diagram.ShapeAsymmetric},
}

type lexer struct {
	src    string
	pos    int
	line   int
	col    int
	tokens []Token
}

// Lex splits flowchart statements into tokens. The result always ends with a
// TokenEOF. Semicolons are reported as newlines.
func Lex(src string) ([]Token, error) {
	l := &lexer{src: src, line: 1, col: 1}
	for {
		done, err := l.next()
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}
	l.emit(Token{Type: TokenEOF})
	return l.tokens, nil
}

func (l *lexer) emit(t Token) {
	if t.Line == 0 {
		t.Line, t.Col = l.line, l.col
	}
	l.tokens = append(l.tokens, t)
}

func (l *lexer) errorf(format string, args ...any) error {
	return &SyntaxError{Line: l.line, Col: l.col, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) rest() string { return l.src[l.pos:] }

func (l *lexer) advance(n int) {
	for _, r := range l.src[l.pos : l.pos+n] {
		if r == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
	}
	l.pos += n
}

func (l *lexer) last() TokenType {
	if len(l.tokens) == 0 {
		return TokenNewline
	}
	return l.tokens[len(l.tokens)-1].Type
}

// afterIdent reports whether a bracket opens a shape. Shapes only follow
// the identifier they label.
func (l *lexer) afterIdent() bool { return l.last() == TokenIdent }

func (l *lexer) next() (bool, error) {
	if l.pos >= len(l.src) {
		return true, nil
	}
	r, size := utf8.DecodeRuneInString(l.rest())
	line, col := l.line, l.col

	switch {
	case r == '\n' || r == ';':
		l.advance(size)
		if l.last() != TokenNewline {
			l.emit(Token{Type: TokenNewline, Line: line, Col: col})
		}
	case r == ' ' || r == '\t':
		l.advance(size)
	case strings.HasPrefix(l.rest(), "%%"):
		l.skipLine()
	case strings.HasPrefix(l.rest(), ":::"):
		l.advance(3)
		name := l.scanIdent()
		if name == "" {
			return false, l.errorf("expected class name after :::")
		}
		l.emit(Token{Type: TokenClass, Value: name, Line: line, Col: col})
	case r == '"':
		s, err := l.scanQuoted()
		if err != nil {
			return false, err
		}
		l.emit(Token{Type: TokenString, Value: s, Line: line, Col: col})
	case r == '&':
		l.advance(size)
		l.emit(Token{Type: TokenAmp, Line: line, Col: col})
	case r == '|':
		return false, l.lexPipe(line, col)
	case (r == '[' || r == '(' || r == '{' || r == '>') && l.afterIdent():
		return false, l.lexShape(line, col)
	case r == '-' || r == '=' || r == '<' || r == '~' || r == '.':
		return false, l.lexLink(line, col)
	case isIdentRune(r):
		name := l.scanIdent()
		if rawKeywords[name] && l.last() == TokenNewline {
			start := l.pos
			l.skipLine()
			l.emit(Token{Type: TokenRaw, Value: name + strings.TrimRight(l.src[start:l.pos], "\n"), Line: line, Col: col})
			return false, nil
		}
		l.emit(Token{Type: TokenIdent, Value: name, Line: line, Col: col})
	default:
		return false, l.errorf("unexpected character %q", r)
	}
	return false, nil
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (l *lexer) scanIdent() string {
	start := l.pos
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.rest())
		if !isIdentRune(r) {
			// Allow single inner dashes ("node-1") but not link starts.
			if r == '-' && l.pos+1 < len(l.src) {
				nr, _ := utf8.DecodeRuneInString(l.src[l.pos+1:])
				if isIdentRune(nr) && l.pos > start {
					l.advance(1)
					continue
				}
			}
			break
		}
		l.advance(size)
	}
	return l.src[start:l.pos]
}

// skipLine advances to the next newline without consuming it.
func (l *lexer) skipLine() {
	i := strings.IndexByte(l.rest(), '\n')
	if i < 0 {
		l.advance(len(l.rest()))
		return
	}
	l.advance(i)
}

func (l *lexer) scanQuoted() (string, error) {
	end := strings.IndexByte(l.src[l.pos+1:], '"')
	if end < 0 {
		return "", l.errorf("unterminated string")
	}
	s := l.src[l.pos+1 : l.pos+1+end]
	l.advance(end + 2)
	return s, nil
}

func (l *lexer) lexPipe(line, col int) error {
	end := strings.IndexAny(l.src[l.pos+1:], "|\n")
	if end < 0 || l.src[l.pos+1+end] != '|' {
		return l.errorf("unterminated pipe label")
	}
	text := l.src[l.pos+1 : l.pos+1+end]
	l.advance(end + 2)
	l.emit(Token{Type: TokenPipeLabel, Value: strings.Trim(strings.TrimSpace(text), `"`), Line: line, Col: col})
	return nil
}

// lexShape reads a bracketed label. The longest matching opener wins; among
// openers of equal length the nearest closer wins.
func (l *lexer) lexShape(line, col int) error {
	rest := l.rest()
	best := -1
	var bestText string
	var bestN int
	for i, d := range shapeDelims {
		if !strings.HasPrefix(rest, d.open) {
			continue
		}
		text, n, ok := shapeBody(rest[len(d.open):], d.close)
		if !ok {
			continue
		}
		n += len(d.open)
		if best >= 0 {
			prev := shapeDelims[best]
			if len(prev.open) > len(d.open) || (len(prev.open) == len(d.open) && bestN <= n) {
				continue
			}
		}
		best, bestText, bestN = i, text, n
	}
	if best < 0 {
		return l.errorf("unterminated shape")
	}
	l.advance(bestN)
	l.emit(Token{Type: TokenShape, Value: bestText, Shape: shapeDelims[best].shape, Line: line, Col: col})
	return nil
}

// shapeBody finds the label and the number of bytes up to and including the
// closer. Quoted labels may contain the closer.
func shapeBody(body, closer string) (string, int, bool) {
	trimmed := strings.TrimLeft(body, " ")
	if strings.HasPrefix(trimmed, `"`) {
		q := strings.IndexByte(trimmed[1:], '"')
		if q < 0 {
			return "", 0, false
		}
		tail := strings.TrimLeft(trimmed[q+2:], " ")
		if !strings.HasPrefix(tail, closer) {
			return "", 0, false
		}
		return trimmed[1 : 1+q], len(body) - len(tail) + len(closer), true
	}
	end := strings.Index(body, closer)
	if end < 0 || strings.Contains(body[:end], "\n") {
		return "", 0, false
	}
	return body[:end], end + len(closer), true
}

// lexLink reads a connector. "--", "==" and "-." followed by text start an
// inline label that runs to the closing connector.
func (l *lexer) lexLink(line, col int) error {
	rest := l.rest()
	i := 0
	bidi := false
	if strings.HasPrefix(rest, "<") {
		bidi = true
		i++
	}
	if strings.HasPrefix(rest[i:], "~~~") {
		n := i + strings.IndexFunc(rest[i:], func(r rune) bool { return r != '~' })
		if n < i {
			n = len(rest)
		}
		l.advance(n)
		l.emit(Token{Type: TokenLink, Link: Link{Stroke: diagram.StrokeSolid}, Line: line, Col: col})
		return nil
	}
	j := i
	for j < len(rest) && strings.IndexByte("-=.", rest[j]) >= 0 {
		j++
	}
	body := rest[i:j]
	head, n := linkHead(rest, j)
	lk, ok := classifyLink(body, head != 0)
	if ok {
		lk.Directed = head != 0 || bidi
		l.advance(j + n)
		l.emit(Token{Type: TokenLink, Link: lk, Line: line, Col: col})
		return nil
	}
	if head == 0 && !bidi && (body == "--" || body == "==" || body == "-.") {
		return l.lexInlineLabel(body, line, col)
	}
	return l.errorf("invalid link %q", rest[:j+n])
}

// linkHead returns the arrowhead at rest[j], if any, and its length.
func linkHead(rest string, j int) (byte, int) {
	if j >= len(rest) {
		return 0, 0
	}
	switch c := rest[j]; c {
	case '>':
		return c, 1
	case 'o', 'x':
		if j+1 == len(rest) || rest[j+1] == ' ' || rest[j+1] == '\t' || rest[j+1] == '\n' {
			return c, 1
		}
	}
	return 0, 0
}

func classifyLink(body string, headed bool) (Link, bool) {
	least := 3
	if headed {
		least = 2
	}
	switch {
	case len(body) >= least && strings.Trim(body, "-") == "":
		return Link{Stroke: diagram.StrokeSolid}, true
	case len(body) >= least && strings.Trim(body, "=") == "":
		return Link{Stroke: diagram.StrokeThick}, true
	case len(body) >= 3 && body[0] == '-' && body[len(body)-1] == '-' && strings.Trim(body[1:len(body)-1], ".") == "" && strings.Contains(body, "."):
		return Link{Stroke: diagram.StrokeDotted}, true
	}
	return Link{}, false
}

func (l *lexer) lexInlineLabel(start string, line, col int) error {
	rest := l.rest()
	closer := start[:1] + start[:1] // "--" or "=="
	stroke := diagram.StrokeSolid
	if start == "==" {
		stroke = diagram.StrokeThick
	}
	if start == "-." {
		closer = ".-"
		stroke = diagram.StrokeDotted
	}
	eol := strings.IndexByte(rest, '\n')
	if eol < 0 {
		eol = len(rest)
	}
	k := strings.Index(rest[len(start):eol], closer)
	if k < 0 {
		return l.errorf("unterminated link label")
	}
	label := strings.TrimSpace(rest[len(start) : len(start)+k])
	j := len(start) + k
	if start == "-." {
		j++ // skip the dot of ".-"
	}
	for j < eol && (rest[j] == start[0] || (start == "-." && rest[j] == '-')) {
		j++
	}
	head, n := linkHead(rest, j)
	if start != "-." && head == 0 && j-(len(start)+k) < 3 {
		return l.errorf("invalid link after label %q", label)
	}
	l.advance(j + n)
	l.emit(Token{
		Type: TokenLink,
		Link: Link{Stroke: stroke, Directed: head != 0, Label: label},
		Line: line,
		Col:  col,
	})
	return nil
}
