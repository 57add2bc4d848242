package parser

import (
	"kestrel/internal/ast"
	"kestrel/internal/diag"
	"kestrel/internal/token"
)

// parseBlock: '{' stmt* '}'. Caller guarantees the current token is '{'.
func (p *Parser) parseBlock() *ast.Block {
	start := p.advance().Span // '{'
	var stmts []ast.Stmt
	for !p.atOr(token.RBrace, token.EOF) {
		before := p.pos
		if st := p.parseStmt(); st != nil {
			stmts = append(stmts, st)
		}
		if p.pos == before {
			p.advance()
		}
	}
	if !p.eat(token.RBrace) {
		p.err(diag.SynUnclosedBrace, start, "unclosed '{'")
	}
	return p.b.Block(p.spanFrom(start), stmts...)
}

func (p *Parser) parseStmt() ast.Stmt {
	switch p.peek().Kind {
	case token.KwLet:
		if v := p.parseLet(); v != nil {
			return v
		}
		return nil
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwReturn:
		return p.parseReturn()
	case token.LBrace:
		return p.parseBlock()
	case token.KwFn:
		p.err(diag.SynUnexpectedToken, p.peek().Span, "nested functions are not supported")
		p.resyncStmt()
		return nil
	case token.Ident:
		if p.peekAt(1).Kind == token.Assign {
			return p.parseAssign()
		}
	}
	return p.parseExprStmt()
}

// parseIf: 'if' expr block ('else' (if | block))?
func (p *Parser) parseIf() ast.Stmt {
	start := p.advance().Span // 'if'
	cond := p.parseExpr()
	if cond == nil {
		p.resyncStmt()
		return nil
	}
	if !p.at(token.LBrace) {
		p.err(diag.SynUnexpectedToken, p.peek().Span, "expected '{' after if condition, got "+p.peek().Kind.String())
		p.resyncStmt()
		return nil
	}
	then := p.parseBlock()

	var els ast.Stmt
	if p.eat(token.KwElse) {
		switch {
		case p.at(token.KwIf):
			els = p.parseIf()
		case p.at(token.LBrace):
			els = p.parseBlock()
		default:
			p.err(diag.SynUnexpectedToken, p.peek().Span, "expected 'if' or '{' after else, got "+p.peek().Kind.String())
		}
	}
	return p.b.If(p.spanFrom(start), cond, then, els)
}

func (p *Parser) parseWhile() ast.Stmt {
	start := p.advance().Span // 'while'
	cond := p.parseExpr()
	if cond == nil {
		p.resyncStmt()
		return nil
	}
	if !p.at(token.LBrace) {
		p.err(diag.SynUnexpectedToken, p.peek().Span, "expected '{' after while condition, got "+p.peek().Kind.String())
		p.resyncStmt()
		return nil
	}
	body := p.parseBlock()
	return p.b.While(p.spanFrom(start), cond, body)
}

// parseReturn: 'return' expr? ';'
func (p *Parser) parseReturn() ast.Stmt {
	start := p.advance().Span // 'return'
	var value ast.Expr
	if !p.atOr(token.Semicolon, token.RBrace, token.EOF) {
		value = p.parseExpr()
		if value == nil {
			p.resyncStmt()
			return nil
		}
	}
	p.expectSemicolon()
	return p.b.Return(p.spanFrom(start), value)
}

func (p *Parser) parseAssign() ast.Stmt {
	name := p.advance() // IDENT
	target := p.b.Ident(name.Span, name.Text)
	p.advance() // '='
	value := p.parseExpr()
	if value == nil {
		p.resyncStmt()
		return nil
	}
	p.expectSemicolon()
	return p.b.Assign(p.spanFrom(name.Span), target, value)
}

func (p *Parser) parseExprStmt() ast.Stmt {
	x := p.parseExpr()
	if x == nil {
		p.resyncStmt()
		return nil
	}
	p.expectSemicolon()
	return p.b.ExprStmt(p.spanFrom(x.Span()), x)
}

func (p *Parser) expectSemicolon() {
	if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "';'"); !ok {
		p.resyncStmt()
	}
}
