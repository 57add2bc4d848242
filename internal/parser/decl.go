package parser

import (
	"kestrel/internal/ast"
	"kestrel/internal/diag"
	"kestrel/internal/token"
)

// parseFunc: 'fn' IDENT '(' params? ')' ('->' type)? block
func (p *Parser) parseFunc() *ast.FuncDecl {
	start := p.advance().Span // 'fn'
	name, ok := p.parseIdent()
	if !ok {
		p.resyncTop()
		return nil
	}
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "'('"); !ok {
		p.resyncTop()
		return nil
	}

	var params []*ast.Param
	for !p.atOr(token.RParen, token.EOF) {
		pname, ok := p.parseIdent()
		if !ok {
			p.resyncTop()
			return nil
		}
		var typ *ast.TypeExpr
		if p.eat(token.Colon) {
			typ = p.parseType()
		}
		params = append(params, p.b.Param(p.spanFrom(pname.Span), pname.Text, typ))
		if !p.eat(token.Comma) {
			break
		}
	}
	if _, ok := p.expect(token.RParen, diag.SynUnexpectedToken, "')'"); !ok {
		p.resyncTop()
		return nil
	}

	var result *ast.TypeExpr
	if p.eat(token.Arrow) {
		result = p.parseType()
	}
	if !p.at(token.LBrace) {
		p.err(diag.SynUnexpectedToken, p.peek().Span, "expected function body, got "+p.peek().Kind.String())
		p.resyncTop()
		return nil
	}
	body := p.parseBlock()
	return p.b.Func(p.spanFrom(start), name.Text, params, result, body)
}

// parseLet: 'let' IDENT (':' type)? ('=' expr)? ';'
func (p *Parser) parseLet() *ast.VarDecl {
	start := p.advance().Span // 'let'
	name, ok := p.parseIdent()
	if !ok {
		p.resyncStmt()
		return nil
	}
	var typ *ast.TypeExpr
	if p.eat(token.Colon) {
		typ = p.parseType()
	}
	var init ast.Expr
	if p.eat(token.Assign) {
		init = p.parseExpr()
		if init == nil {
			p.resyncStmt()
			return nil
		}
	}
	if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "';'"); !ok {
		p.resyncStmt()
	}
	return p.b.Var(p.spanFrom(start), name.Text, typ, init)
}
