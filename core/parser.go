package chatlisp

import (
	"strconv"
	"strings"
)

// Tokenize splits code into tokens. Parentheses always become their own
// tokens; quotes are not special, so a string literal containing spaces is
// split like anything else.
func Tokenize(code string) []string {
	code = strings.ReplaceAll(code, "(", " ( ")
	code = strings.ReplaceAll(code, ")", " ) ")
	return strings.Fields(code)
}

// Read consumes the tokens of one form from the front of *tokens and returns
// it. Unbalanced or exhausted input is a FatalError.
func Read(tokens *[]string) (Value, error) {
	return readDepth(tokens, 0, 0)
}

// ReadLimit is Read with lists nested deeper than limit a FatalError.
// A limit <= 0 means unbounded.
func ReadLimit(tokens *[]string, limit int) (Value, error) {
	return readDepth(tokens, 0, limit)
}

func readDepth(tokens *[]string, depth, limit int) (Value, error) {
	if len(*tokens) == 0 {
		return Value{}, fatalf("parse", "unexpected end of input")
	}
	token := (*tokens)[0]
	*tokens = (*tokens)[1:]
	switch token {
	case "(":
		if limit > 0 && depth >= limit {
			return Value{}, fatalf("parse", "nesting deeper than %d", limit)
		}
		list := []Value{}
		for len(*tokens) > 0 && (*tokens)[0] != ")" {
			elem, err := readDepth(tokens, depth+1, limit)
			if err != nil {
				return Value{}, err
			}
			list = append(list, elem)
		}
		if len(*tokens) == 0 {
			return Value{}, fatalf("parse", "unexpected end of input while reading list")
		}
		*tokens = (*tokens)[1:] // skip ')'
		return ListVal(list), nil
	case ")":
		return Value{}, fatalf("parse", "unexpected )")
	default:
		return atom(token), nil
	}
}

func atom(token string) Value {
	if n, err := strconv.ParseInt(token, 10, 64); err == nil {
		return NumberVal(n)
	}
	first, last := token[0], token[len(token)-1]
	if first == last && (first == '"' || first == '\'') {
		if len(token) < 2 {
			return TextVal("")
		}
		return TextVal(token[1 : len(token)-1])
	}
	return SymbolVal(token)
}

// Parse reads the first form of code. Tokens after it are ignored.
func Parse(code string) (Value, error) {
	return ParseLimit(code, 0)
}

// ParseLimit is Parse with a nesting limit; see ReadLimit.
func ParseLimit(code string, limit int) (Value, error) {
	tokens := Tokenize(code)
	return ReadLimit(&tokens, limit)
}

// ParseAll reads every top-level form of code in order.
func ParseAll(code string) ([]Value, error) {
	return ParseAllLimit(code, 0)
}

// ParseAllLimit is ParseAll with a nesting limit; see ReadLimit.
func ParseAllLimit(code string, limit int) ([]Value, error) {
	tokens := Tokenize(code)
	forms := []Value{}
	for len(tokens) > 0 {
		form, err := ReadLimit(&tokens, limit)
		if err != nil {
			return nil, err
		}
		forms = append(forms, form)
	}
	return forms, nil
}
