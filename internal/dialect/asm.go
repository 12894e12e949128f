package dialect

import (
	"regexp"
	"strings"

	"github.com/jward/tisym/internal/syntax"
)

// Productions and tokens shared by the two assembler dialects.
const (
	KindProgram  syntax.Kind = "program"
	KindLine     syntax.Kind = "line"
	KindLabelDef syntax.Kind = "labeldef"
	KindOpLabel  syntax.Kind = "oplabel"
	KindOperands syntax.Kind = "operands"

	TokLabel    syntax.Kind = "LABEL"
	TokSymbol   syntax.Kind = "SYMBOL"
	TokMnemonic syntax.Kind = "MNEMONIC"
	TokNumber   syntax.Kind = "NUMBER"
	TokRegister syntax.Kind = "REGISTER"
	TokString   syntax.Kind = "STRING"
	TokPrefix   syntax.Kind = "PREFIX"
	TokLC       syntax.Kind = "LC"
	TokOp       syntax.Kind = "OP"
	TokColon    syntax.Kind = "COLON"
	TokComment  syntax.Kind = "COMMENT"
	TokNewline  syntax.Kind = "NEWLINE"
	TokText     syntax.Kind = "TEXT"
)

// LocalMarker starts an assembler local label. Local labels are resolved by
// position and never renamed.
const LocalMarker = "!"

var (
	asmIdentRe    = regexp.MustCompile(`^(!+[A-Za-z0-9_]*|[A-Za-z_][A-Za-z0-9_]*)$`)
	asmRegisterRe = regexp.MustCompile(`^[Rr]([0-9]|1[0-5])$`)
)

// asmGrammar parses the column-oriented assembler line format shared by
// xas99 and xga99:
//
//	[label[:]] [mnemonic [operands]] [comment]
//
// A '*' in column 0 makes the whole line a comment.
type asmGrammar struct {
	noOperands map[string]bool
	prefixes   bool // GPL G@ and V@ address prefixes
}

func (g *asmGrammar) Parse(name string, src []byte) *syntax.Tree {
	t := syntax.NewTree(name)
	p := &lineBuilder{t: t}
	var lines []syntax.NodeID

	text := string(src)
	for len(text) > 0 {
		line, rest, nl := cutLine(text)
		text = rest
		lines = append(lines, g.parseLine(p, line, nl))
	}

	lines = append(lines, t.NewLeaf(syntax.KindEOF, p.flush(), ""))
	t.SetRoot(t.NewNode(KindProgram, lines...))
	return t
}

func (g *asmGrammar) parseLine(p *lineBuilder, line string, nl bool) syntax.NodeID {
	p.begin()
	if strings.HasPrefix(line, "*") {
		p.leaf(TokComment, line)
		return p.end(nl)
	}

	rest := line
	if rest != "" && !isBlank(rest[0]) {
		field, after := cutField(rest)
		rest = after
		p.node(g.labelField(p.t, field))
	}

	ws, rest := cutBlank(rest)
	p.space(ws)
	if rest == "" {
		return p.end(nl)
	}
	if rest[0] == ';' {
		p.leaf(TokComment, rest)
		return p.end(nl)
	}

	mnemonic, rest := cutField(rest)
	p.leaf(TokMnemonic, mnemonic)

	ws, rest = cutBlank(rest)
	p.space(ws)
	if rest == "" {
		return p.end(nl)
	}
	if g.noOperands[strings.ToUpper(mnemonic)] || rest[0] == ';' {
		p.leaf(TokComment, rest)
		return p.end(nl)
	}

	field, rest := cutOperandField(rest)
	p.node(g.operands(p, field))

	ws, rest = cutBlank(rest)
	p.space(ws)
	if rest != "" {
		p.leaf(TokComment, rest)
	}
	return p.end(nl)
}

// labelField builds the label definition in column 0.
func (g *asmGrammar) labelField(t *syntax.Tree, field string) syntax.NodeID {
	name, colon := field, ""
	if len(field) > 1 && strings.HasSuffix(field, ":") {
		name, colon = field[:len(field)-1], ":"
	}
	if !asmIdentRe.MatchString(name) {
		return t.NewNode(syntax.KindError, t.NewLeaf(TokText, "", field))
	}
	def := t.NewNode(KindLabelDef, t.NewLeaf(TokLabel, "", name))
	if colon != "" {
		t.Append(def, t.NewLeaf(TokColon, "", colon))
	}
	return def
}

// operands tokenizes the operand field. The first token inherits the
// pending whitespace.
func (g *asmGrammar) operands(p *lineBuilder, field string) syntax.NodeID {
	t := p.t
	var items []syntax.NodeID
	emit := func(kind syntax.Kind, text string) {
		items = append(items, t.NewLeaf(kind, p.flush(), text))
	}

	for i := 0; i < len(field); {
		c := field[i]
		switch {
		case c == '\'':
			end := scanQuoted(field, i, '\'')
			if end < 0 {
				items = append(items, t.NewNode(syntax.KindError, t.NewLeaf(TokText, p.flush(), field[i:])))
				i = len(field)
				continue
			}
			emit(TokString, field[i:end])
			i = end
		case c == '>' && i+1 < len(field) && isHexDigit(field[i+1]):
			j := i + 1
			for j < len(field) && isHexDigit(field[j]) {
				j++
			}
			emit(TokNumber, field[i:j])
			i = j
		case c == ':' && i+1 < len(field) && (field[i+1] == '0' || field[i+1] == '1'):
			j := i + 1
			for j < len(field) && (field[j] == '0' || field[j] == '1') {
				j++
			}
			emit(TokNumber, field[i:j])
			i = j
		case isDigit(c):
			j := i
			for j < len(field) && isDigit(field[j]) {
				j++
			}
			emit(TokNumber, field[i:j])
			i = j
		case c == '$':
			emit(TokLC, "$")
			i++
		case c == '!' || isIdentStart(c):
			j := i
			for j < len(field) && field[j] == '!' {
				j++
			}
			for j < len(field) && isIdentChar(field[j]) {
				j++
			}
			word := field[i:j]
			switch {
			case g.prefixes && (word == "G" || word == "V" || word == "g" || word == "v") && j < len(field) && field[j] == '@':
				emit(TokPrefix, field[i:j+1])
				j++
			case asmRegisterRe.MatchString(word):
				emit(TokRegister, word)
			default:
				sym := t.NewLeaf(TokSymbol, p.flush(), word)
				items = append(items, t.NewNode(KindOpLabel, sym))
			}
			i = j
		case strings.IndexByte("@*+-/&|^~(),#=<>", c) >= 0:
			emit(TokOp, string(c))
			i++
		default:
			items = append(items, t.NewNode(syntax.KindError, t.NewLeaf(TokText, p.flush(), string(c))))
			i++
		}
	}
	return t.NewNode(KindOperands, items...)
}

// asmPositional resolves "!name" references: forward by default, backward
// when written with a unary minus ("-!name").
func asmPositional(t *syntax.Tree, site syntax.NodeID, name string) (Direction, bool) {
	if !strings.HasPrefix(name, LocalMarker) {
		return Forward, false
	}
	prev := t.PrevLeaf(site)
	if !prev.IsValid() || t.Kind(prev) != TokOp || t.Token(prev) != "-" {
		return Forward, true
	}
	ops := t.Ancestor(site, KindOperands)
	before := t.PrevLeaf(prev)
	if !before.IsValid() || t.Ancestor(before, KindOperands) != ops {
		return Backward, true
	}
	switch t.Kind(before) {
	case TokSymbol, TokNumber, TokRegister, TokString, TokLC:
		return Forward, true // binary minus
	case TokOp:
		if t.Token(before) == ")" {
			return Forward, true
		}
	}
	return Backward, true
}

func asmRestricted(_ SymbolKind, name string) bool {
	return strings.HasPrefix(name, LocalMarker)
}

var asmSites = map[syntax.Kind]Site{
	KindLabelDef: {Role: RoleDefinition, Kind: Label, Ident: TokLabel},
	KindOpLabel:  {Role: RoleReference, Kind: Label, Ident: TokSymbol},
}

// lineBuilder accumulates the children of one line and carries whitespace
// forward as the leading trivia of the next leaf.
type lineBuilder struct {
	t        *syntax.Tree
	pending  string
	children []syntax.NodeID
}

func (p *lineBuilder) begin() { p.children = nil }

func (p *lineBuilder) space(ws string) { p.pending += ws }

func (p *lineBuilder) flush() string {
	s := p.pending
	p.pending = ""
	return s
}

func (p *lineBuilder) leaf(kind syntax.Kind, text string) syntax.NodeID {
	id := p.t.NewLeaf(kind, p.flush(), text)
	p.children = append(p.children, id)
	return id
}

func (p *lineBuilder) node(id syntax.NodeID) {
	p.children = append(p.children, id)
}

// end closes the line. Trailing whitespace becomes the lead of the newline,
// or stays pending for the EOF leaf on an unterminated last line.
func (p *lineBuilder) end(nl bool) syntax.NodeID {
	if nl {
		p.leaf(TokNewline, "\n")
	}
	return p.t.NewNode(KindLine, p.children...)
}

func cutLine(text string) (line, rest string, nl bool) {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i], text[i+1:], true
	}
	return text, "", false
}

func cutField(s string) (field, rest string) {
	i := 0
	for i < len(s) && !isBlank(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func cutBlank(s string) (ws, rest string) {
	i := 0
	for i < len(s) && isBlank(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

// cutOperandField splits at the first blank or ';' outside a quoted string.
func cutOperandField(s string) (field, rest string) {
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\'':
			end := scanQuoted(s, i, '\'')
			if end < 0 {
				return s, ""
			}
			i = end - 1
		case isBlank(s[i]) || s[i] == ';':
			return s[:i], s[i:]
		}
	}
	return s, ""
}

// scanQuoted returns the index just past the closing quote of the string
// starting at s[i], treating a doubled quote as an escape; -1 if unterminated.
func scanQuoted(s string, i int, q byte) int {
	for j := i + 1; j < len(s); j++ {
		if s[j] != q {
			continue
		}
		if j+1 < len(s) && s[j+1] == q {
			j++
			continue
		}
		return j + 1
	}
	return -1
}

func isBlank(c byte) bool      { return c == ' ' || c == '\t' || c == '\r' }
func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isHexDigit(c byte) bool   { return isDigit(c) || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f') }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') }
func isIdentChar(c byte) bool  { return isIdentStart(c) || isDigit(c) }
