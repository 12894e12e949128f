package dialect

import (
	"strings"

	"github.com/jward/tisym/internal/syntax"
)

// Xbas99 is the TI Extended BASIC dialect.
const Xbas99 = "xbas99"

// Extended BASIC productions.
const (
	KindLinoDef    syntax.Kind = "lino_def"
	KindLinoRef    syntax.Kind = "lino_ref"
	KindNVarWrite  syntax.Kind = "nvar_write"
	KindNVarRead   syntax.Kind = "nvar_read"
	KindNVarFunc   syntax.Kind = "nvar_func"
	KindSVarWrite  syntax.Kind = "svar_write"
	KindSVarRead   syntax.Kind = "svar_read"
	KindSVarFunc   syntax.Kind = "svar_func"
	KindNFuncDef   syntax.Kind = "nfunc_def"
	KindSFuncDef   syntax.Kind = "sfunc_def"
	KindNParam     syntax.Kind = "nvar_param"
	KindSParam     syntax.Kind = "svar_param"
	KindSubDef     syntax.Kind = "sub_def"
	KindSubRef     syntax.Kind = "sub_ref"
	KindStatement  syntax.Kind = "statement"
	KindDefStmt    syntax.Kind = "def_stmt"
	KindSubStmt    syntax.Kind = "sub_stmt"
	KindSubEndStmt syntax.Kind = "subend_stmt"

	TokLino     syntax.Kind = "LINO"
	TokNVar     syntax.Kind = "NVAR"
	TokSVar     syntax.Kind = "SVAR"
	TokName     syntax.Kind = "NAME"
	TokKeyword  syntax.Kind = "KEYWORD"
	TokFunction syntax.Kind = "FUNCTION"
	TokSep      syntax.Kind = "SEP"
	TokRaw      syntax.Kind = "RAW"
)

func init() {
	Register(&Rules{
		Name:       Xbas99,
		Extensions: []string{".b99", ".xb", ".bas"},
		Grammar:    GrammarFunc(parseBasic),
		Sites: map[syntax.Kind]Site{
			KindLinoDef:   {Role: RoleDefinition, Kind: LineNumber, Ident: TokLino},
			KindLinoRef:   {Role: RoleReference, Kind: LineNumber, Ident: TokLino},
			KindNVarWrite: {Role: RoleDefinition, Kind: NumVarWrite, Ident: TokNVar},
			KindNVarRead:  {Role: RoleReference, Kind: NumVarRead, Ident: TokNVar},
			KindNVarFunc:  {Role: RoleReference, Kind: NumVarFunc, Ident: TokNVar},
			KindNFuncDef:  {Role: RoleDefinition, Kind: NumVarFunc, Ident: TokNVar},
			KindSVarWrite: {Role: RoleDefinition, Kind: StrVarWrite, Ident: TokSVar},
			KindSVarRead:  {Role: RoleReference, Kind: StrVarRead, Ident: TokSVar},
			KindSVarFunc:  {Role: RoleReference, Kind: StrVarFunc, Ident: TokSVar},
			KindSFuncDef:  {Role: RoleDefinition, Kind: StrVarFunc, Ident: TokSVar},
			KindNParam:    {Role: RoleDefinition, Kind: NumVarWrite, Ident: TokNVar},
			KindSParam:    {Role: RoleDefinition, Kind: StrVarWrite, Ident: TokSVar},
			KindSubDef:    {Role: RoleDefinition, Kind: SubProgram, Ident: TokName},
			KindSubRef:    {Role: RoleReference, Kind: SubProgram, Ident: TokName},
		},
		// Line numbers are positional: renaming one is renumbering.
		Restricted: func(kind SymbolKind, _ string) bool { return kind == LineNumber },
		Scoping: Scoping{
			Open:  KindSubStmt,
			Close: KindSubEndStmt,
			Global: func(kind SymbolKind) bool {
				return kind == LineNumber || kind == SubProgram
			},
			// DEF F(X)=X*2: X is bound by the DEF only.
			Local:  KindDefStmt,
			Params: map[syntax.Kind]bool{KindNParam: true, KindSParam: true},
		},
		Fragments: map[syntax.Kind]string{
			KindNVarWrite: "1 %s=0\n",
			KindNVarRead:  "1 PRINT %s\n",
			KindNVarFunc:  "1 PRINT %s(1)\n",
			KindNFuncDef:  "1 DEF %s=0\n",
			KindSVarWrite: "1 %s=\"\"\n",
			KindSVarRead:  "1 PRINT %s\n",
			KindSVarFunc:  "1 PRINT %s(1)\n",
			KindSFuncDef:  "1 DEF %s=\"\"\n",
			KindNParam:    "1 DEF F(%s)=0\n",
			KindSParam:    "1 DEF F(%s)=0\n",
			KindSubDef:    "1 SUB %s\n",
			KindSubRef:    "1 CALL %s\n",
		},
	})
}

var basicKeywords = toSet(
	"ACCEPT", "ALL", "AND", "APPEND", "AT", "BASE", "BEEP", "BREAK", "CALL", "CLOSE", "DATA", "DEF",
	"DELETE", "DIGIT", "DIM", "DISPLAY", "ELSE", "END", "ERASE", "ERROR", "FIXED", "FOR", "GO", "GOSUB",
	"GOTO", "IF", "IMAGE", "INPUT", "INTERNAL", "LET", "LINPUT", "NEXT", "NOT", "NUMERIC", "ON", "OPEN",
	"OPTION", "OR", "OUTPUT", "PERMANENT", "PRINT", "RANDOMIZE", "READ", "RELATIVE", "REM", "RESTORE",
	"RETURN", "RUN", "SEQUENTIAL", "SIZE", "STEP", "STOP", "SUB", "SUBEND", "SUBEXIT", "THEN", "TO",
	"TRACE", "UALPHA", "UNBREAK", "UNTRACE", "UPDATE", "USING", "VALIDATE", "VARIABLE", "WARNING", "XOR",
)

var basicFunctions = toSet(
	"ABS", "ASC", "ATN", "CHR$", "COS", "EOF", "EXP", "INT", "LEN", "LOG", "MAX", "MIN", "PI", "POS",
	"REC", "RND", "RPT$", "SEG$", "SGN", "SIN", "SQR", "STR$", "TAB", "TAN", "VAL",
)

func toSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

type basicToken struct {
	kind syntax.Kind
	lead string
	text string
}

// parseBasic parses "lino stmt [:: stmt]... [! comment]" lines.
func parseBasic(name string, src []byte) *syntax.Tree {
	t := syntax.NewTree(name)
	var lines []syntax.NodeID
	pending := ""

	text := string(src)
	for len(text) > 0 {
		line, rest, nl := cutLine(text)
		text = rest
		var id syntax.NodeID
		id, pending = parseBasicLine(t, pending, line, nl)
		lines = append(lines, id)
	}

	lines = append(lines, t.NewLeaf(syntax.KindEOF, pending, ""))
	t.SetRoot(t.NewNode(KindProgram, lines...))
	return t
}

// parseBasicLine returns the line node and any whitespace left pending on an
// unterminated last line.
func parseBasicLine(t *syntax.Tree, pending, line string, nl bool) (syntax.NodeID, string) {
	var children []syntax.NodeID
	ws, rest := cutBlank(line)
	pending += ws

	digits := 0
	for digits < len(rest) && isDigit(rest[digits]) {
		digits++
	}

	switch {
	case rest == "":
	case digits == 0:
		children = append(children, t.NewNode(syntax.KindError, t.NewLeaf(TokText, pending, rest)))
		pending = ""
	default:
		lino := t.NewLeaf(TokLino, pending, rest[:digits])
		pending = ""
		children = append(children, t.NewNode(KindLinoDef, lino))

		toks, trailing := lexBasic(rest[digits:])
		p := &basicParser{t: t, toks: toks}
		children = append(children, p.statements()...)
		pending = trailing
	}

	if !nl {
		return t.NewNode(KindLine, children...), pending
	}
	children = append(children, t.NewLeaf(TokNewline, pending, "\n"))
	return t.NewNode(KindLine, children...), ""
}

// lexBasic splits a line body into tokens. REM swallows the rest of the
// line as a comment, DATA and IMAGE as raw text.
func lexBasic(s string) ([]basicToken, string) {
	var toks []basicToken
	lead := ""
	emit := func(kind syntax.Kind, text string) {
		toks = append(toks, basicToken{kind: kind, lead: lead, text: text})
		lead = ""
	}

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case isBlank(c):
			lead += string(c)
			i++
		case c == '"':
			end := scanQuoted(s, i, '"')
			if end < 0 {
				emit(syntax.KindError, s[i:])
				return toks, ""
			}
			emit(TokString, s[i:end])
			i = end
		case isDigit(c) || (c == '.' && i+1 < len(s) && isDigit(s[i+1])):
			j := scanBasicNumber(s, i)
			emit(TokNumber, s[i:j])
			i = j
		case c == ':' && i+1 < len(s) && s[i+1] == ':':
			emit(TokSep, "::")
			i += 2
		case c == '!':
			emit(TokComment, s[i:])
			return toks, ""
		case isBasicIdentStart(c):
			j := i
			for j < len(s) && isBasicIdentChar(s[j]) {
				j++
			}
			if j < len(s) && s[j] == '$' {
				j++
			}
			word := s[i:j]
			upper := strings.ToUpper(word)
			i = j
			switch {
			case basicKeywords[upper]:
				emit(TokKeyword, word)
				if upper == "REM" || upper == "DATA" || upper == "IMAGE" {
					ws, rest := cutBlank(s[i:])
					if rest == "" {
						return toks, ws
					}
					lead = ws
					kind := TokRaw
					if upper == "REM" {
						kind = TokComment
					}
					emit(kind, rest)
					return toks, ""
				}
			case basicFunctions[upper]:
				emit(TokFunction, word)
			case strings.HasSuffix(word, "$"):
				emit(TokSVar, word)
			default:
				emit(TokNVar, word)
			}
		case (c == '<' || c == '>') && i+1 < len(s) && (s[i+1] == '=' || (c == '<' && s[i+1] == '>')):
			emit(TokOp, s[i:i+2])
			i += 2
		case strings.IndexByte("=<>+-*/^&(),;:#.", c) >= 0:
			emit(TokOp, string(c))
			i++
		default:
			emit(syntax.KindError, string(c))
			i++
		}
	}
	return toks, lead
}

func scanBasicNumber(s string, i int) int {
	j := i
	for j < len(s) && (isDigit(s[j]) || s[j] == '.') {
		j++
	}
	if j < len(s) && (s[j] == 'E' || s[j] == 'e') {
		k := j + 1
		if k < len(s) && (s[k] == '+' || s[k] == '-') {
			k++
		}
		if k < len(s) && isDigit(s[k]) {
			for k < len(s) && isDigit(s[k]) {
				k++
			}
			j = k
		}
	}
	return j
}

func isBasicIdentStart(c byte) bool { return isIdentStart(c) || c == '@' }
func isBasicIdentChar(c byte) bool  { return isBasicIdentStart(c) || isDigit(c) }

// basicParser builds statement nodes from one line's tokens.
type basicParser struct {
	t    *syntax.Tree
	toks []basicToken
	pos  int
	ifs  int // open IF ... THEN branches; ELSE ends the innermost
}

func (p *basicParser) peek() (basicToken, bool) {
	if p.pos >= len(p.toks) {
		return basicToken{}, false
	}
	return p.toks[p.pos], true
}

func (p *basicParser) peekKeyword(words ...string) bool {
	tok, ok := p.peek()
	if !ok || tok.kind != TokKeyword {
		return false
	}
	up := strings.ToUpper(tok.text)
	for _, w := range words {
		if up == w {
			return true
		}
	}
	return false
}

func (p *basicParser) peekOp(op string) bool {
	tok, ok := p.peek()
	return ok && tok.kind == TokOp && tok.text == op
}

// atEnd reports the end of the current statement.
func (p *basicParser) atEnd() bool {
	tok, ok := p.peek()
	if !ok {
		return true
	}
	switch tok.kind {
	case TokSep, TokComment:
		return true
	}
	return p.ifs > 0 && p.peekKeyword("ELSE")
}

// leaf consumes the next token as a leaf of the given kind.
func (p *basicParser) leaf(kind syntax.Kind) syntax.NodeID {
	tok := p.toks[p.pos]
	p.pos++
	if tok.kind == syntax.KindError {
		return p.t.NewNode(syntax.KindError, p.t.NewLeaf(TokText, tok.lead, tok.text))
	}
	if kind == "" {
		kind = tok.kind
	}
	return p.t.NewLeaf(kind, tok.lead, tok.text)
}

// site consumes the next token as the identifier of a site production.
func (p *basicParser) site(kind, ident syntax.Kind) syntax.NodeID {
	return p.t.NewNode(kind, p.leaf(ident))
}

// statements parses statements and separators until the line ends, or
// until ELSE when inside an IF branch.
func (p *basicParser) statements() []syntax.NodeID {
	var out []syntax.NodeID
	for {
		tok, ok := p.peek()
		if !ok || (p.ifs > 0 && p.peekKeyword("ELSE")) {
			return out
		}
		switch tok.kind {
		case TokSep, TokComment:
			out = append(out, p.leaf(""))
		default:
			out = append(out, p.statement())
		}
	}
}

func (p *basicParser) statement() syntax.NodeID {
	kind := KindStatement
	var items []syntax.NodeID
	add := func(ids ...syntax.NodeID) { items = append(items, ids...) }

	tok, _ := p.peek()
	switch {
	case tok.kind == TokNVar || tok.kind == TokSVar:
		add(p.assignment()...)
	case tok.kind != TokKeyword:
		add(p.expr()...)
	default:
		switch strings.ToUpper(tok.text) {
		case "GOTO", "GOSUB", "RESTORE", "RUN", "BREAK", "UNBREAK", "RETURN":
			add(p.leaf(""))
			add(p.linoList()...)
		case "GO":
			add(p.leaf(""))
			if p.peekKeyword("TO", "SUB") {
				add(p.leaf(""))
			}
			add(p.linoList()...)
		case "ON":
			add(p.leaf(""))
			if p.peekKeyword("ERROR", "BREAK", "WARNING") {
				add(p.leaf(""))
			} else {
				add(p.exprUntil("GOTO", "GOSUB", "GO")...)
				for p.peekKeyword("GOTO", "GOSUB", "GO", "TO", "SUB") {
					add(p.leaf(""))
				}
			}
			add(p.linoList()...)
		case "IF":
			add(p.ifStatement()...)
		case "LET":
			add(p.leaf(""))
			add(p.assignment()...)
		case "FOR":
			add(p.leaf(""))
			if p.peekVar() {
				add(p.target()...)
			}
			add(p.expr()...)
		case "INPUT", "LINPUT", "READ", "ACCEPT":
			add(p.leaf(""))
			add(p.inputTargets()...)
		case "DIM":
			add(p.leaf(""))
			add(p.targetList()...)
		case "DEF":
			kind = KindDefStmt
			add(p.leaf(""))
			add(p.def()...)
		case "SUB":
			kind = KindSubStmt
			add(p.leaf(""))
			add(p.subHeader()...)
		case "SUBEND":
			kind = KindSubEndStmt
			add(p.leaf(""))
			add(p.expr()...)
		case "CALL":
			add(p.leaf(""))
			if tok, ok := p.peek(); ok && !p.atEnd() && tok.kind != TokOp {
				add(p.subName(KindSubRef))
			}
			add(p.expr()...)
		default:
			add(p.leaf(""))
			add(p.expr()...)
		}
	}
	return p.t.NewNode(kind, items...)
}

func (p *basicParser) peekVar() bool {
	tok, ok := p.peek()
	return ok && (tok.kind == TokNVar || tok.kind == TokSVar)
}

// expr consumes tokens to the end of the statement, turning variables into
// read or function sites.
func (p *basicParser) expr() []syntax.NodeID { return p.exprUntil() }

func (p *basicParser) exprUntil(stop ...string) []syntax.NodeID {
	var out []syntax.NodeID
	for !p.atEnd() && !p.peekKeyword(stop...) {
		out = append(out, p.operand())
	}
	return out
}

// operand consumes one expression token.
func (p *basicParser) operand() syntax.NodeID {
	tok, _ := p.peek()
	switch tok.kind {
	case TokNVar, TokSVar:
		call := p.pos+1 < len(p.toks) && p.toks[p.pos+1].kind == TokOp && p.toks[p.pos+1].text == "("
		return p.varSite(tok.kind, call, false)
	default:
		return p.leaf("")
	}
}

func (p *basicParser) varSite(tokKind syntax.Kind, call, write bool) syntax.NodeID {
	var kind syntax.Kind
	switch {
	case write && tokKind == TokNVar:
		kind = KindNVarWrite
	case write:
		kind = KindSVarWrite
	case call && tokKind == TokNVar:
		kind = KindNVarFunc
	case call:
		kind = KindSVarFunc
	case tokKind == TokNVar:
		kind = KindNVarRead
	default:
		kind = KindSVarRead
	}
	return p.site(kind, tokKind)
}

// target consumes a write site and its optional subscript.
func (p *basicParser) target() []syntax.NodeID {
	tok, _ := p.peek()
	out := []syntax.NodeID{p.varSite(tok.kind, false, true)}
	if p.peekOp("(") {
		out = append(out, p.balanced()...)
	}
	return out
}

// balanced consumes a parenthesised group, nested groups included.
func (p *basicParser) balanced() []syntax.NodeID {
	var out []syntax.NodeID
	depth := 0
	for !p.atEnd() {
		switch {
		case p.peekOp("("):
			depth++
		case p.peekOp(")"):
			depth--
		}
		out = append(out, p.operand())
		if depth == 0 {
			break
		}
	}
	return out
}

// assignment handles "target [, target]... = expr".
func (p *basicParser) assignment() []syntax.NodeID {
	var out []syntax.NodeID
	for p.peekVar() {
		out = append(out, p.target()...)
		if !p.peekOp(",") {
			break
		}
		out = append(out, p.leaf(""))
	}
	return append(out, p.expr()...)
}

// targetList handles the comma separated write lists of DIM and READ.
func (p *basicParser) targetList() []syntax.NodeID {
	var out []syntax.NodeID
	for !p.atEnd() {
		if p.peekVar() {
			out = append(out, p.target()...)
			continue
		}
		out = append(out, p.operand())
	}
	return out
}

// inputTargets applies the INPUT/ACCEPT rule: everything up to the last
// top-level ':' is file number, prompt or options; what follows is written.
func (p *basicParser) inputTargets() []syntax.NodeID {
	colon := -1
	depth := 0
	for i := p.pos; i < len(p.toks); i++ {
		tok := p.toks[i]
		if tok.kind == TokSep || tok.kind == TokComment {
			break
		}
		if p.ifs > 0 && tok.kind == TokKeyword && strings.ToUpper(tok.text) == "ELSE" {
			break
		}
		switch {
		case tok.kind == TokOp && tok.text == "(":
			depth++
		case tok.kind == TokOp && tok.text == ")":
			depth--
		case tok.kind == TokOp && tok.text == ":" && depth == 0:
			colon = i
		}
	}

	var out []syntax.NodeID
	for colon >= 0 && p.pos <= colon {
		out = append(out, p.operand())
	}
	return append(out, p.targetList()...)
}

// linoList handles line number lists after GOTO, GOSUB, ON ... GOTO and
// friends.
func (p *basicParser) linoList() []syntax.NodeID {
	var out []syntax.NodeID
	for !p.atEnd() {
		tok, _ := p.peek()
		if tok.kind == TokNumber && isAllDigits(tok.text) {
			out = append(out, p.site(KindLinoRef, TokLino))
			continue
		}
		out = append(out, p.operand())
	}
	return out
}

func (p *basicParser) ifStatement() []syntax.NodeID {
	out := []syntax.NodeID{p.leaf("")}
	p.ifs++
	out = append(out, p.exprUntil("THEN")...)
	if p.peekKeyword("THEN") {
		out = append(out, p.leaf(""))
		out = append(out, p.branch()...)
	}
	p.ifs--
	if p.peekKeyword("ELSE") {
		out = append(out, p.leaf(""))
		out = append(out, p.branch()...)
	}
	return out
}

// branch is either a bare line number or a statement sequence.
func (p *basicParser) branch() []syntax.NodeID {
	tok, ok := p.peek()
	if ok && tok.kind == TokNumber && isAllDigits(tok.text) {
		return []syntax.NodeID{p.site(KindLinoRef, TokLino)}
	}
	return p.statements()
}

// def handles "DEF name[(param)] = expr".
func (p *basicParser) def() []syntax.NodeID {
	var out []syntax.NodeID
	if tok, ok := p.peek(); ok && (tok.kind == TokNVar || tok.kind == TokSVar) {
		kind := KindNFuncDef
		if tok.kind == TokSVar {
			kind = KindSFuncDef
		}
		out = append(out, p.site(kind, tok.kind))
	}
	if p.peekOp("(") {
		out = append(out, p.leaf(""))
		for !p.atEnd() && !p.peekOp(")") {
			switch tok, _ := p.peek(); tok.kind {
			case TokNVar:
				out = append(out, p.site(KindNParam, TokNVar))
			case TokSVar:
				out = append(out, p.site(KindSParam, TokSVar))
			default:
				out = append(out, p.leaf(""))
			}
		}
	}
	return append(out, p.expr()...)
}

// subHeader handles "SUB name[(params)]"; parameters are written on entry.
func (p *basicParser) subHeader() []syntax.NodeID {
	var out []syntax.NodeID
	if !p.atEnd() && !p.peekOp("(") {
		out = append(out, p.subName(KindSubDef))
	}
	for !p.atEnd() {
		if p.peekVar() {
			tok, _ := p.peek()
			out = append(out, p.varSite(tok.kind, false, true))
			continue
		}
		out = append(out, p.leaf(""))
	}
	return out
}

// subName consumes a subprogram name. Names are numeric-style identifiers;
// keywords, built-in functions and string names are errors.
func (p *basicParser) subName(kind syntax.Kind) syntax.NodeID {
	tok, _ := p.peek()
	if tok.kind == TokNVar {
		return p.site(kind, TokName)
	}
	p.pos++
	return p.t.NewNode(syntax.KindError, p.t.NewLeaf(TokText, tok.lead, tok.text))
}

func isAllDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return s != ""
}
