package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	Ident
	IntLit
	FloatLit
	StringLit

	KwFn     // fn
	KwLet    // let
	KwIf     // if
	KwElse   // else
	KwWhile  // while
	KwReturn // return
	KwTrue   // true
	KwFalse  // false

	Plus      // +
	Minus     // -
	Star      // *
	Slash     // /
	Assign    // =
	EqEq      // ==
	Bang      // !
	BangEq    // !=
	Lt        // <
	LtEq      // <=
	Gt        // >
	GtEq      // >=
	AndAnd    // &&
	OrOr      // ||
	Colon     // :
	Semicolon // ;
	Comma     // ,
	Arrow     // ->
	LParen    // (
	RParen    // )
	LBrace    // {
	RBrace    // }
)

var kindNames = [...]string{
	Invalid:   "invalid",
	EOF:       "end of file",
	Ident:     "identifier",
	IntLit:    "integer literal",
	FloatLit:  "float literal",
	StringLit: "string literal",
	KwFn:      "'fn'",
	KwLet:     "'let'",
	KwIf:      "'if'",
	KwElse:    "'else'",
	KwWhile:   "'while'",
	KwReturn:  "'return'",
	KwTrue:    "'true'",
	KwFalse:   "'false'",
	Plus:      "'+'",
	Minus:     "'-'",
	Star:      "'*'",
	Slash:     "'/'",
	Assign:    "'='",
	EqEq:      "'=='",
	Bang:      "'!'",
	BangEq:    "'!='",
	Lt:        "'<'",
	LtEq:      "'<='",
	Gt:        "'>'",
	GtEq:      "'>='",
	AndAnd:    "'&&'",
	OrOr:      "'||'",
	Colon:     "':'",
	Semicolon: "';'",
	Comma:     "','",
	Arrow:     "'->'",
	LParen:    "'('",
	RParen:    "')'",
	LBrace:    "'{'",
	RBrace:    "'}'",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}
