package guard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Expr is a compiled guard expression.
//
// Supported syntax:
//   - truthiness: `attendingWithGuest`
//   - equality: `position == "Designer"`, `count != 3`, `enabled == true`
//   - ordering (numeric only): `age > 0`, `years >= 2`
//   - composition: `a == "x" || a == "y"`, `a && !b`, parentheses
//
// Identifiers resolve against the values map, first as a literal key and then
// through dotted traversal of nested maps.
type Expr struct {
	src  string
	root node
}

// Compile parses src into an Expr. An empty source compiles to an expression
// that always holds.
func Compile(src string) (*Expr, error) {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return &Expr{}, nil
	}
	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	root, err := parse(tokens)
	if err != nil {
		return nil, err
	}
	return &Expr{src: trimmed, root: root}, nil
}

// MustCompile is Compile for expressions known at build time.
func MustCompile(src string) *Expr {
	expr, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return expr
}

// String returns the source text.
func (e *Expr) String() string {
	if e == nil {
		return ""
	}
	return e.src
}

// Eval evaluates the expression against values.
func (e *Expr) Eval(values map[string]any) (bool, error) {
	if e == nil || e.root == nil {
		return true, nil
	}
	return e.root.eval(values)
}

// Holds is Eval with evaluation errors reported as false.
func (e *Expr) Holds(values map[string]any) bool {
	ok, err := e.Eval(values)
	return err == nil && ok
}

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenEq
	tokenNeq
	tokenGt
	tokenGte
	tokenLt
	tokenLte
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	raw  string
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '(', ')', '!', '=', '&', '|', '<', '>':
		return true
	}
	return false
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	peek := func(offset int) byte {
		if i+offset >= len(input) {
			return 0
		}
		return input[i+offset]
	}

	for i < len(input) {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '(':
			tokens = append(tokens, token{kind: tokenLParen, raw: "("})
			i++
		case ch == ')':
			tokens = append(tokens, token{kind: tokenRParen, raw: ")"})
			i++
		case ch == '!':
			if peek(1) == '=' {
				tokens = append(tokens, token{kind: tokenNeq, raw: "!="})
				i += 2
				continue
			}
			tokens = append(tokens, token{kind: tokenNot, raw: "!"})
			i++
		case ch == '=':
			if peek(1) != '=' {
				return nil, errors.New("guard: unexpected '='; use '=='")
			}
			tokens = append(tokens, token{kind: tokenEq, raw: "=="})
			i += 2
		case ch == '>' || ch == '<':
			kind, raw := tokenGt, ">"
			if ch == '<' {
				kind, raw = tokenLt, "<"
			}
			if peek(1) == '=' {
				if kind == tokenGt {
					kind = tokenGte
				} else {
					kind = tokenLte
				}
				raw += "="
				i++
			}
			tokens = append(tokens, token{kind: kind, raw: raw})
			i++
		case ch == '&':
			if peek(1) != '&' {
				return nil, errors.New("guard: unexpected '&'; use '&&'")
			}
			tokens = append(tokens, token{kind: tokenAnd, raw: "&&"})
			i += 2
		case ch == '|':
			if peek(1) != '|' {
				return nil, errors.New("guard: unexpected '|'; use '||'")
			}
			tokens = append(tokens, token{kind: tokenOr, raw: "||"})
			i += 2
		case ch == '"' || ch == '\'':
			value, next, err := readString(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokenString, raw: value})
			i = next
		default:
			start := i
			for i < len(input) && !isDelimiter(input[i]) {
				i++
			}
			raw := input[start:i]
			switch strings.ToLower(raw) {
			case "true", "false":
				tokens = append(tokens, token{kind: tokenBool, raw: strings.ToLower(raw)})
			case "null", "nil":
				tokens = append(tokens, token{kind: tokenNull, raw: "null"})
			default:
				if looksLikeNumber(raw) {
					tokens = append(tokens, token{kind: tokenNumber, raw: raw})
				} else {
					tokens = append(tokens, token{kind: tokenIdentifier, raw: raw})
				}
			}
		}
	}
	return tokens, nil
}

func readString(input string, start int) (string, int, error) {
	quote := input[start]
	escaped := false
	for i := start + 1; i < len(input); i++ {
		c := input[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c != quote {
			continue
		}
		body := input[start+1 : i]
		if quote == '\'' {
			body = strings.ReplaceAll(body, `\'`, `'`)
			body = strings.ReplaceAll(body, `"`, `\"`)
		}
		value, err := strconv.Unquote(`"` + body + `"`)
		if err != nil {
			return "", 0, fmt.Errorf("guard: invalid string literal: %w", err)
		}
		return value, i + 1, nil
	}
	return "", 0, errors.New("guard: unterminated string literal")
}

func looksLikeNumber(raw string) bool {
	if raw == "" {
		return false
	}
	if ch := raw[0]; (ch < '0' || ch > '9') && ch != '-' && ch != '+' && ch != '.' {
		return false
	}
	_, err := strconv.ParseFloat(raw, 64)
	return err == nil
}

type node interface {
	eval(values map[string]any) (bool, error)
}

type orNode struct{ left, right node }

func (n orNode) eval(values map[string]any) (bool, error) {
	ok, err := n.left.eval(values)
	if err != nil || ok {
		return ok, err
	}
	return n.right.eval(values)
}

type andNode struct{ left, right node }

func (n andNode) eval(values map[string]any) (bool, error) {
	ok, err := n.left.eval(values)
	if err != nil || !ok {
		return false, err
	}
	return n.right.eval(values)
}

type notNode struct{ inner node }

func (n notNode) eval(values map[string]any) (bool, error) {
	ok, err := n.inner.eval(values)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

type truthyNode struct{ identifier string }

func (n truthyNode) eval(values map[string]any) (bool, error) {
	value, ok := lookup(values, n.identifier)
	if !ok {
		return false, nil
	}
	return truthy(value), nil
}

type compareNode struct {
	identifier string
	op         token
	literal    token
}

func (n compareNode) eval(values map[string]any) (bool, error) {
	value, _ := lookup(values, n.identifier)

	switch n.op.kind {
	case tokenGt, tokenGte, tokenLt, tokenLte:
		if n.literal.kind != tokenNumber {
			return false, fmt.Errorf("guard: operator %q needs a number literal", n.op.raw)
		}
		want, _ := strconv.ParseFloat(n.literal.raw, 64)
		got, ok := coerceNumber(value)
		if !ok {
			return false, nil
		}
		switch n.op.kind {
		case tokenGt:
			return got > want, nil
		case tokenGte:
			return got >= want, nil
		case tokenLt:
			return got < want, nil
		default:
			return got <= want, nil
		}
	}

	var equal bool
	switch n.literal.kind {
	case tokenNull:
		equal = value == nil
	case tokenBool:
		got, _ := coerceBool(value)
		equal = got == (n.literal.raw == "true")
	case tokenNumber:
		want, _ := strconv.ParseFloat(n.literal.raw, 64)
		got, ok := coerceNumber(value)
		equal = ok && got == want
	default:
		equal = coerceString(value) == n.literal.raw
	}
	if n.op.kind == tokenNeq {
		return !equal, nil
	}
	return equal, nil
}

type parser struct {
	tokens []token
	pos    int
}

func parse(tokens []token) (node, error) {
	p := &parser{tokens: tokens}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, fmt.Errorf("guard: unexpected token %q", p.tokens[p.pos].raw)
	}
	return root, nil
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.match(tokenOr) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.match(tokenAnd) {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.match(tokenNot) {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	if p.match(tokenLParen) {
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.match(tokenRParen) {
			return nil, errors.New("guard: missing closing ')'")
		}
		return inner, nil
	}

	if p.pos >= len(p.tokens) {
		return nil, errors.New("guard: empty expression")
	}
	ident := p.tokens[p.pos]
	if ident.kind != tokenIdentifier {
		return nil, fmt.Errorf("guard: expected identifier, got %q", ident.raw)
	}
	p.pos++

	if p.pos < len(p.tokens) && isComparison(p.tokens[p.pos].kind) {
		op := p.tokens[p.pos]
		p.pos++
		lit, err := p.literal()
		if err != nil {
			return nil, err
		}
		return compareNode{identifier: ident.raw, op: op, literal: lit}, nil
	}
	return truthyNode{identifier: ident.raw}, nil
}

func isComparison(kind tokenKind) bool {
	switch kind {
	case tokenEq, tokenNeq, tokenGt, tokenGte, tokenLt, tokenLte:
		return true
	}
	return false
}

func (p *parser) match(kind tokenKind) bool {
	if p.pos >= len(p.tokens) || p.tokens[p.pos].kind != kind {
		return false
	}
	p.pos++
	return true
}

func (p *parser) literal() (token, error) {
	if p.pos >= len(p.tokens) {
		return token{}, errors.New("guard: missing literal")
	}
	tok := p.tokens[p.pos]
	p.pos++
	switch tok.kind {
	case tokenString, tokenNumber, tokenBool, tokenNull:
		return tok, nil
	case tokenIdentifier:
		// bare words compare as strings: position == Designer
		return token{kind: tokenString, raw: tok.raw}, nil
	default:
		return token{}, fmt.Errorf("guard: expected literal, got %q", tok.raw)
	}
}

func lookup(values map[string]any, path string) (any, bool) {
	path = strings.TrimSpace(path)
	if len(values) == 0 || path == "" {
		return nil, false
	}
	if v, ok := values[path]; ok {
		return v, true
	}

	var current any = values
	for _, part := range strings.Split(path, ".") {
		switch typed := current.(type) {
		case map[string]any:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		case map[string]bool:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		case map[string]string:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		default:
			return nil, false
		}
	}
	return current, true
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		for _, item := range v {
			if truthy(item) {
				return true
			}
		}
		return false
	case map[string]bool:
		for _, item := range v {
			if item {
				return true
			}
		}
		return false
	default:
		return true
	}
}

func coerceBool(value any) (bool, bool) {
	switch v := value.(type) {
	case nil:
		return false, false
	case bool:
		return v, true
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return parsed, true
		}
		return strings.TrimSpace(v) != "", true
	default:
		return truthy(value), true
	}
}

func coerceNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func coerceString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(value)
	}
}
