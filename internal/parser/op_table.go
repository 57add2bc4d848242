package parser

import (
	"kestrel/internal/ast"
	"kestrel/internal/token"
)

// Таблица приоритетов для бинарных операторов
// Чем больше число, тем выше приоритет
const (
	precLogicalOr      = 1 // ||
	precLogicalAnd     = 2 // &&
	precEquality       = 3 // == !=
	precComparison     = 4 // < <= > >=
	precAdditive       = 5 // + -
	precMultiplicative = 6 // * /
)

// binaryPrec возвращает приоритет оператора или -1, если токен не бинарный.
// Все бинарные операторы левоассоциативны.
func binaryPrec(kind token.Kind) int {
	switch kind {
	case token.OrOr:
		return precLogicalOr
	case token.AndAnd:
		return precLogicalAnd
	case token.EqEq, token.BangEq:
		return precEquality
	case token.Lt, token.LtEq, token.Gt, token.GtEq:
		return precComparison
	case token.Plus, token.Minus:
		return precAdditive
	case token.Star, token.Slash:
		return precMultiplicative
	default:
		return -1
	}
}

var binaryOps = map[token.Kind]ast.BinaryOp{
	token.Plus:   ast.BinAdd,
	token.Minus:  ast.BinSub,
	token.Star:   ast.BinMul,
	token.Slash:  ast.BinDiv,
	token.EqEq:   ast.BinEq,
	token.BangEq: ast.BinNe,
	token.Lt:     ast.BinLt,
	token.LtEq:   ast.BinLe,
	token.Gt:     ast.BinGt,
	token.GtEq:   ast.BinGe,
	token.AndAnd: ast.BinAnd,
	token.OrOr:   ast.BinOr,
}

func unaryOp(kind token.Kind) (ast.UnaryOp, bool) {
	switch kind {
	case token.Minus:
		return ast.UnaryNeg, true
	case token.Bang:
		return ast.UnaryNot, true
	default:
		return 0, false
	}
}
