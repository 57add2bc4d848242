package parser

import (
	"slices"

	"kestrel/internal/ast"
	"kestrel/internal/diag"
	"kestrel/internal/lexer"
	"kestrel/internal/source"
	"kestrel/internal/token"
)

type Options struct {
	Reporter  diag.Reporter
	MaxErrors uint
}

// Parser: состояние парсера на один файл
type Parser struct {
	toks     []token.Token
	pos      int
	b        *ast.Builder
	opts     Options
	errors   uint
	lastSpan source.Span // span последнего съеденного токена
}

// ParseFile lexes and parses one file of fs. It always returns a Program;
// on syntax errors the program holds whatever declarations were recovered.
func ParseFile(fs *source.FileSet, id source.FileID, b *ast.Builder, opts Options) *ast.Program {
	file := fs.Get(id)
	p := &Parser{
		toks: lexer.All(file, lexer.Options{Reporter: opts.Reporter}),
		b:    b,
		opts: opts,
	}
	return p.parseProgram()
}

// ParseSource is a convenience wrapper for in-memory sources.
func ParseSource(fs *source.FileSet, name string, src []byte, b *ast.Builder, opts Options) *ast.Program {
	return ParseFile(fs, fs.AddVirtual(name, src), b, opts)
}

func (p *Parser) peek() token.Token {
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) at(k token.Kind) bool {
	return p.peek().Kind == k
}

func (p *Parser) atOr(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.peek().Kind)
}

func (p *Parser) advance() token.Token {
	tok := p.toks[p.pos]
	if tok.Kind != token.EOF {
		p.pos++
	}
	p.lastSpan = tok.Span
	return tok
}

func (p *Parser) eat(k token.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

// expect consumes a token of kind k or reports code at the current token.
func (p *Parser) expect(k token.Kind, code diag.Code, what string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	p.err(code, p.peek().Span, "expected "+what+", got "+p.peek().Kind.String())
	return p.peek(), false
}

func (p *Parser) err(code diag.Code, sp source.Span, msg string) {
	if p.opts.MaxErrors != 0 && p.errors >= p.opts.MaxErrors {
		return
	}
	p.errors++
	if p.opts.Reporter != nil {
		p.opts.Reporter.Report(code, diag.SevError, sp, msg, nil)
	}
}

// spanFrom covers everything from start to the last consumed token.
func (p *Parser) spanFrom(start source.Span) source.Span {
	return start.Cover(p.lastSpan)
}

func (p *Parser) parseProgram() *ast.Program {
	start := p.peek().Span
	var decls []ast.Decl
	for !p.at(token.EOF) {
		before := p.pos
		switch p.peek().Kind {
		case token.KwFn:
			if fn := p.parseFunc(); fn != nil {
				decls = append(decls, fn)
			}
		case token.KwLet:
			if v := p.parseLet(); v != nil {
				decls = append(decls, v)
			}
		default:
			p.err(diag.SynUnexpectedTopLevel, p.peek().Span, "expected 'fn' or 'let' at top level, got "+p.peek().Kind.String())
			p.advance()
			p.resyncTop()
		}
		if p.pos == before {
			p.advance()
		}
	}
	return p.b.Program(p.spanFrom(start), decls...)
}

// resyncTop пропускает токены до стартера следующего item или EOF.
func (p *Parser) resyncTop() {
	for !p.atOr(token.EOF, token.KwFn, token.KwLet) {
		p.advance()
	}
}

// resyncStmt skips to just past the next ';' or up to a closing '}'.
func (p *Parser) resyncStmt() {
	for !p.atOr(token.EOF, token.RBrace) {
		if p.advance().Kind == token.Semicolon {
			return
		}
	}
}

func (p *Parser) parseIdent() (token.Token, bool) {
	return p.expect(token.Ident, diag.SynExpectIdentifier, "identifier")
}

func (p *Parser) parseType() *ast.TypeExpr {
	tok, ok := p.expect(token.Ident, diag.SynExpectType, "type name")
	if !ok {
		return nil
	}
	return p.b.Type(tok.Span, tok.Text)
}
