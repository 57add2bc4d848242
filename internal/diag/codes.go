package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Лексические
	LexUnknownChar        Code = 1001
	LexUnterminatedString Code = 1002
	LexBadNumber          Code = 1003
	LexBadEscape          Code = 1004

	// Парсерные
	SynUnexpectedToken    Code = 2001
	SynExpectSemicolon    Code = 2002
	SynExpectIdentifier   Code = 2003
	SynExpectType         Code = 2004
	SynExpectExpression   Code = 2005
	SynUnclosedBrace      Code = 2006
	SynUnexpectedTopLevel Code = 2007

	// Имена и типы
	SemaDuplicateSymbol  Code = 3001
	SemaUnresolvedSymbol Code = 3002
	SemaTypeMismatch     Code = 3003
	SemaOccursCheck      Code = 3004
	SemaArityMismatch    Code = 3005
	SemaNotCallable      Code = 3006
	SemaReturnOutsideFn  Code = 3007

	// IO
	IOLoadFileError Code = 4001

	// Project / configuration
	ProjInvalidManifest Code = 5001

	// Кодогенерация
	GenLowerFailed    Code = 6001
	GenAssembleFailed Code = 6002
)

var codeDescription = map[Code]string{
	UnknownCode:           "Unknown error",
	LexUnknownChar:        "Unknown character",
	LexUnterminatedString: "Unterminated string",
	LexBadNumber:          "Bad number literal",
	LexBadEscape:          "Bad escape sequence",
	SynUnexpectedToken:    "Unexpected token",
	SynExpectSemicolon:    "Expected semicolon",
	SynExpectIdentifier:   "Expected identifier",
	SynExpectType:         "Expected type",
	SynExpectExpression:   "Expected expression",
	SynUnclosedBrace:      "Unclosed brace",
	SynUnexpectedTopLevel: "Unexpected top-level item",
	SemaDuplicateSymbol:   "Duplicate symbol",
	SemaUnresolvedSymbol:  "Unresolved symbol",
	SemaTypeMismatch:      "Type mismatch",
	SemaOccursCheck:       "Infinite type",
	SemaArityMismatch:     "Wrong number of arguments",
	SemaNotCallable:       "Value is not callable",
	SemaReturnOutsideFn:   "Return outside function",
	IOLoadFileError:       "Failed to load file",
	ProjInvalidManifest:   "Invalid project manifest",
	GenLowerFailed:        "Lowering failed",
	GenAssembleFailed:     "Assembly failed",
}

func (c Code) ID() string {
	ic := int(c)
	switch {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("GEN%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
