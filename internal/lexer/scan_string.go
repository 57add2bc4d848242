package lexer

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"kestrel/internal/diag"
	"kestrel/internal/token"
)

// scanString decodes a double-quoted literal. The decoded value is stored in
// Token.Text in NFC form.
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // '"'

	var sb strings.Builder
	for {
		if lx.cursor.EOF() || lx.cursor.Peek() == '\n' {
			sp := lx.cursor.SpanFrom(start)
			lx.report(diag.LexUnterminatedString, sp, "unterminated string literal")
			return token.Token{Kind: token.Invalid, Span: sp, Text: sb.String()}
		}
		ch := lx.cursor.Bump()
		if ch == '"' {
			break
		}
		if ch != '\\' {
			sb.WriteByte(ch)
			continue
		}
		escStart := lx.cursor.Mark() - 1
		switch esc := lx.cursor.Bump(); esc {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case '"':
			sb.WriteByte('"')
		case '\\':
			sb.WriteByte('\\')
		default:
			lx.report(diag.LexBadEscape, lx.cursor.SpanFrom(escStart), "unknown escape sequence \\"+string(rune(esc)))
		}
	}
	return token.Token{
		Kind: token.StringLit,
		Span: lx.cursor.SpanFrom(start),
		Text: norm.NFC.String(sb.String()),
	}
}
