package parser

import (
	"strconv"
	"strings"

	"kestrel/internal/ast"
	"kestrel/internal/diag"
	"kestrel/internal/token"
)

// parseExpr - главная точка входа для парсинга выражений.
// Возвращает nil, если выражение разобрать не удалось (ошибка уже выдана).
func (p *Parser) parseExpr() ast.Expr {
	return p.parseBinaryExpr(0)
}

// parseBinaryExpr реализует Pratt parsing для бинарных операторов
func (p *Parser) parseBinaryExpr(minPrec int) ast.Expr {
	left := p.parseUnaryExpr()
	if left == nil {
		return nil
	}
	for {
		prec := binaryPrec(p.peek().Kind)
		if prec < 0 || prec < minPrec {
			return left
		}
		opTok := p.advance()
		right := p.parseBinaryExpr(prec + 1)
		if right == nil {
			return nil
		}
		left = p.b.Binary(left.Span().Cover(right.Span()), binaryOps[opTok.Kind], left, right)
	}
}

func (p *Parser) parseUnaryExpr() ast.Expr {
	if op, ok := unaryOp(p.peek().Kind); ok {
		opTok := p.advance()
		x := p.parseUnaryExpr()
		if x == nil {
			return nil
		}
		return p.b.Unary(opTok.Span.Cover(x.Span()), op, x)
	}
	return p.parsePostfixExpr()
}

// parsePostfixExpr handles call suffixes: f(a)(b) is allowed syntactically.
func (p *Parser) parsePostfixExpr() ast.Expr {
	x := p.parsePrimary()
	for x != nil && p.at(token.LParen) {
		p.advance()
		var args []ast.Expr
		for !p.atOr(token.RParen, token.EOF) {
			arg := p.parseExpr()
			if arg == nil {
				return nil
			}
			args = append(args, arg)
			if !p.eat(token.Comma) {
				break
			}
		}
		if _, ok := p.expect(token.RParen, diag.SynUnexpectedToken, "')'"); !ok {
			return nil
		}
		x = p.b.Call(p.spanFrom(x.Span()), x, args...)
	}
	return x
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case token.Ident:
		p.advance()
		return p.b.Ident(tok.Span, tok.Text)
	case token.IntLit:
		p.advance()
		v, err := strconv.ParseInt(strings.ReplaceAll(tok.Text, "_", ""), 10, 64)
		if err != nil {
			p.err(diag.LexBadNumber, tok.Span, "integer literal out of range: "+tok.Text)
		}
		return p.b.Int(tok.Span, v)
	case token.FloatLit:
		p.advance()
		v, err := strconv.ParseFloat(strings.ReplaceAll(tok.Text, "_", ""), 64)
		if err != nil {
			p.err(diag.LexBadNumber, tok.Span, "invalid float literal: "+tok.Text)
		}
		return p.b.Float(tok.Span, v)
	case token.StringLit:
		p.advance()
		return p.b.Str(tok.Span, tok.Text)
	case token.KwTrue, token.KwFalse:
		p.advance()
		return p.b.Bool(tok.Span, tok.Kind == token.KwTrue)
	case token.LParen:
		p.advance()
		if p.at(token.RParen) {
			// () это литерал unit
			p.advance()
			return p.b.Unit(p.spanFrom(tok.Span))
		}
		inner := p.parseExpr()
		if inner == nil {
			return nil
		}
		if _, ok := p.expect(token.RParen, diag.SynUnexpectedToken, "')'"); !ok {
			return nil
		}
		return inner
	case token.Invalid:
		// лексер уже сообщил об ошибке
		p.advance()
		return nil
	default:
		p.err(diag.SynExpectExpression, tok.Span, "expected expression, got "+tok.Kind.String())
		return nil
	}
}
