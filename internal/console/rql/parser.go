package rql

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser implements a recursive descent parser for RQL.
type Parser struct {
	tokens []Token
	pos    int
	errors []*ParseError
}

// NewParser creates a parser from a token slice (typically from Lexer.Tokenize).
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses the token stream into a list of statements.
func (p *Parser) Parse() ([]Statement, []*ParseError) {
	var stmts []Statement
	for !p.atEnd() {
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts, p.errors
}

// ── Token navigation ────────────────────────────────────────────────────────

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *Parser) atEnd() bool {
	return p.peek().Type == TokenEOF
}

func (p *Parser) check(t TokenType) bool {
	return p.peek().Type == t
}

func (p *Parser) match(types ...TokenType) (Token, bool) {
	for _, t := range types {
		if p.check(t) {
			return p.advance(), true
		}
	}
	return Token{}, false
}

func (p *Parser) expect(t TokenType) (Token, bool) {
	if p.check(t) {
		return p.advance(), true
	}
	tok := p.peek()
	p.addError(tok, fmt.Sprintf("expected %s, got %s", t, tok.Type))
	return tok, false
}

func (p *Parser) addError(tok Token, msg string) {
	p.errors = append(p.errors, &ParseError{
		Message: msg,
		Line:    tok.Line,
		Col:     tok.Col,
		Pos:     tok.Pos,
	})
}

// synchronize skips tokens until a statement boundary (verb or meta-command).
func (p *Parser) synchronize() {
	for !p.atEnd() {
		tok := p.peek()
		if tok.Type.IsVerb() || tok.Type == TokenMetaCmd {
			return
		}
		p.advance()
	}
}

// ── Statement parsing ───────────────────────────────────────────────────────

func (p *Parser) parseStatement() Statement {
	tok := p.peek()

	switch tok.Type {
	case TokenFind:
		return p.parseFind()
	case TokenGet:
		return p.parseGet()
	case TokenCount:
		return p.parseCount()
	case TokenDescribe:
		return p.parseDescribe()
	case TokenDelete:
		return p.parseLifecycle(OpDelete)
	case TokenRestore:
		return p.parseLifecycle(OpRestore)
	case TokenPurge:
		return p.parseLifecycle(OpPurge)
	case TokenMetaCmd:
		return p.parseMetaCmd()
	default:
		p.addError(tok, fmt.Sprintf("expected an RQL verb (find, get, count, describe, delete, restore, purge) or meta-command, got %s", tok.Type))
		p.advance()
		p.synchronize()
		return nil
	}
}

// ── find ─────────────────────────────────────────────────────────────────────

func (p *Parser) parseFind() *FindStmt {
	tok := p.advance() // consume 'find'
	stmt := &FindStmt{TokenPos: tok.Pos}

	modelTok, ok := p.expect(TokenIdent)
	if !ok {
		p.synchronize()
		return nil
	}
	stmt.Model = strings.ToLower(modelTok.Literal)

	// Clauses in any order
	for !p.atEnd() && !p.peek().Type.IsVerb() && p.peek().Type != TokenMetaCmd {
		switch p.peek().Type {
		case TokenWhere:
			if stmt.Where != nil {
				p.addError(p.peek(), "duplicate 'where' clause")
				p.advance()
				p.synchronize()
				return stmt
			}
			stmt.Where = p.parseWhere()
		case TokenSelect:
			if stmt.Select != nil {
				p.addError(p.peek(), "duplicate 'select' clause")
				p.advance()
				p.synchronize()
				return stmt
			}
			stmt.Select = p.parseSelect()
		case TokenOrder:
			if stmt.OrderBy != nil {
				p.addError(p.peek(), "duplicate 'order by' clause")
				p.advance()
				p.synchronize()
				return stmt
			}
			stmt.OrderBy = p.parseOrderBy()
		case TokenLimit:
			if stmt.Limit != nil {
				p.addError(p.peek(), "duplicate 'limit' clause")
				p.advance()
				p.synchronize()
				return stmt
			}
			stmt.Limit = p.parseLimit()
		case TokenOffset:
			if stmt.Offset != nil {
				p.addError(p.peek(), "duplicate 'offset' clause")
				p.advance()
				p.synchronize()
				return stmt
			}
			stmt.Offset = p.parseOffset()
		case TokenFlag:
			flag := p.advance()
			if flag.Literal == "--deleted" {
				stmt.WithDeleted = true
			} else {
				p.addError(flag, fmt.Sprintf("unknown flag %s", flag.Literal))
			}
		default:
			p.addError(p.peek(), fmt.Sprintf("unexpected %s in find statement", p.peek().Type))
			p.advance()
			return stmt
		}
	}

	return stmt
}

// ── get ──────────────────────────────────────────────────────────────────────

func (p *Parser) parseGet() *GetStmt {
	tok := p.advance() // consume 'get'
	stmt := &GetStmt{TokenPos: tok.Pos}

	modelTok, ok := p.expect(TokenIdent)
	if !ok {
		p.synchronize()
		return nil
	}
	stmt.Model = strings.ToLower(modelTok.Literal)

	idTok, ok := p.expect(TokenString)
	if !ok {
		p.synchronize()
		return nil
	}
	stmt.ID = idTok.Literal

	return stmt
}

// ── count ────────────────────────────────────────────────────────────────────

func (p *Parser) parseCount() *CountStmt {
	tok := p.advance() // consume 'count'
	stmt := &CountStmt{TokenPos: tok.Pos}

	modelTok, ok := p.expect(TokenIdent)
	if !ok {
		p.synchronize()
		return nil
	}
	stmt.Model = strings.ToLower(modelTok.Literal)

	for !p.atEnd() && !p.peek().Type.IsVerb() && p.peek().Type != TokenMetaCmd {
		switch p.peek().Type {
		case TokenWhere:
			if stmt.Where != nil {
				p.addError(p.peek(), "duplicate 'where' clause")
				p.advance()
				p.synchronize()
				return stmt
			}
			stmt.Where = p.parseWhere()
		case TokenFlag:
			flag := p.advance()
			if flag.Literal == "--deleted" {
				stmt.WithDeleted = true
			} else {
				p.addError(flag, fmt.Sprintf("unknown flag %s", flag.Literal))
			}
		default:
			p.addError(p.peek(), fmt.Sprintf("unexpected %s in count statement", p.peek().Type))
			p.advance()
			return stmt
		}
	}

	return stmt
}

// ── describe ─────────────────────────────────────────────────────────────────

func (p *Parser) parseDescribe() *DescribeStmt {
	tok := p.advance() // consume 'describe'
	stmt := &DescribeStmt{TokenPos: tok.Pos}

	// Model name is optional; without it the executor lists all models.
	if p.check(TokenIdent) {
		stmt.Model = strings.ToLower(p.advance().Literal)
	}

	return stmt
}

// ── delete / restore / purge ─────────────────────────────────────────────────

func (p *Parser) parseLifecycle(op LifecycleOp) *LifecycleStmt {
	tok := p.advance() // consume verb
	stmt := &LifecycleStmt{TokenPos: tok.Pos, Op: op}

	modelTok, ok := p.expect(TokenIdent)
	if !ok {
		p.synchronize()
		return nil
	}
	stmt.Model = strings.ToLower(modelTok.Literal)

	// Either a single quoted id or a bracketed list of ids.
	switch p.peek().Type {
	case TokenString:
		stmt.IDs = []string{p.advance().Literal}
	case TokenLBrack:
		p.advance() // consume '['
		for !p.check(TokenRBrack) && !p.atEnd() {
			idTok, ok := p.expect(TokenString)
			if !ok {
				p.synchronize()
				return nil
			}
			stmt.IDs = append(stmt.IDs, idTok.Literal)
			if !p.check(TokenRBrack) {
				if _, ok := p.expect(TokenComma); !ok {
					break
				}
			}
		}
		p.expect(TokenRBrack)
	default:
		p.addError(p.peek(), fmt.Sprintf("expected a quoted id or [\"id\", ...] after '%s %s'", op, stmt.Model))
		p.synchronize()
		return nil
	}

	if len(stmt.IDs) == 0 {
		p.addError(p.peek(), fmt.Sprintf("'%s' needs at least one id", op))
		return nil
	}

	return stmt
}

// ── meta-command ─────────────────────────────────────────────────────────────

func (p *Parser) parseMetaCmd() *MetaCmdStmt {
	tok := p.advance()
	stmt := &MetaCmdStmt{
		TokenPos: tok.Pos,
		Command:  strings.TrimPrefix(tok.Literal, ":"),
	}

	// Meta-commands consume the rest of the input as raw args.
	for !p.atEnd() && p.peek().Type != TokenMetaCmd {
		arg := p.advance()
		stmt.Args = append(stmt.Args, arg.Literal)
	}

	return stmt
}

// ── WHERE clause ─────────────────────────────────────────────────────────────

func (p *Parser) parseWhere() *WhereClause {
	p.advance() // consume 'where'
	expr := p.parseOrExpr()
	if expr == nil {
		return nil
	}
	return &WhereClause{Expr: expr}
}

func (p *Parser) parseOrExpr() Expr {
	left := p.parseAndExpr()
	if left == nil {
		return nil
	}
	for p.check(TokenOr) {
		opTok := p.advance()
		right := p.parseAndExpr()
		if right == nil {
			return left
		}
		left = &BinaryLogicExpr{TokenPos: opTok.Pos, Op: LogicOr, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAndExpr() Expr {
	left := p.parseUnaryExpr()
	if left == nil {
		return nil
	}
	for p.check(TokenAnd) {
		opTok := p.advance()
		right := p.parseUnaryExpr()
		if right == nil {
			return left
		}
		left = &BinaryLogicExpr{TokenPos: opTok.Pos, Op: LogicAnd, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseUnaryExpr() Expr {
	if tok, ok := p.match(TokenNot); ok {
		expr := p.parseUnaryExpr()
		if expr == nil {
			return nil
		}
		return &NotExpr{TokenPos: tok.Pos, Expr: expr}
	}

	if p.check(TokenLParen) {
		p.advance()
		expr := p.parseOrExpr()
		p.expect(TokenRParen)
		return expr
	}

	return p.parseComparison()
}

func (p *Parser) parseComparison() Expr {
	if !p.check(TokenIdent) {
		p.addError(p.peek(), fmt.Sprintf("expected column name, got %s", p.peek().Type))
		return nil
	}

	colTok := p.advance()
	column := strings.ToLower(colTok.Literal)
	startPos := p.peek().Pos

	if p.check(TokenIn) {
		p.advance()
		values := p.parseArrayLiteral()
		return &InExpr{TokenPos: startPos, Column: column, Values: values}
	}

	if p.check(TokenLike) {
		p.advance()
		val := p.parseLiteral()
		return &ComparisonExpr{TokenPos: startPos, Column: column, Op: CompLike, Value: val}
	}

	op, ok := p.parseCompOp()
	if !ok {
		p.addError(p.peek(), fmt.Sprintf("expected comparison operator (=, !=, >, <, >=, <=, like, in), got %s", p.peek().Type))
		return nil
	}

	val := p.parseLiteral()
	return &ComparisonExpr{TokenPos: startPos, Column: column, Op: op, Value: val}
}

func (p *Parser) parseCompOp() (CompOp, bool) {
	switch p.peek().Type {
	case TokenEQ:
		p.advance()
		return CompEQ, true
	case TokenNEQ:
		p.advance()
		return CompNEQ, true
	case TokenGT:
		p.advance()
		return CompGT, true
	case TokenLT:
		p.advance()
		return CompLT, true
	case TokenGTE:
		p.advance()
		return CompGTE, true
	case TokenLTE:
		p.advance()
		return CompLTE, true
	default:
		return 0, false
	}
}

func (p *Parser) parseLiteral() Literal {
	tok := p.peek()
	switch tok.Type {
	case TokenString:
		p.advance()
		return Literal{TokenPos: tok.Pos, Type: LitString, Raw: tok.Literal}
	case TokenInt:
		p.advance()
		return Literal{TokenPos: tok.Pos, Type: LitInt, Raw: tok.Literal}
	case TokenFloat:
		p.advance()
		return Literal{TokenPos: tok.Pos, Type: LitFloat, Raw: tok.Literal}
	case TokenBool:
		p.advance()
		return Literal{TokenPos: tok.Pos, Type: LitBool, Raw: tok.Literal}
	case TokenNull:
		p.advance()
		return Literal{TokenPos: tok.Pos, Type: LitNull, Raw: tok.Literal}
	default:
		p.addError(tok, fmt.Sprintf("expected literal value, got %s", tok.Type))
		p.advance()
		return Literal{TokenPos: tok.Pos, Type: LitNull, Raw: "null"}
	}
}

func (p *Parser) parseArrayLiteral() []Literal {
	if _, ok := p.expect(TokenLBrack); !ok {
		return nil
	}

	var values []Literal
	for !p.check(TokenRBrack) && !p.atEnd() {
		values = append(values, p.parseLiteral())
		if !p.check(TokenRBrack) {
			if _, ok := p.expect(TokenComma); !ok {
				break
			}
		}
	}

	p.expect(TokenRBrack)
	return values
}

// ── SELECT clause ───────────────────────────────────────────────────────────

func (p *Parser) parseSelect() *SelectClause {
	p.advance() // consume 'select'

	if p.check(TokenStar) {
		p.advance()
		// select * is the default projection
		return nil
	}

	if !p.check(TokenIdent) {
		p.addError(p.peek(), "expected column name after 'select'")
		return nil
	}

	clause := &SelectClause{}
	clause.Columns = append(clause.Columns, strings.ToLower(p.advance().Literal))

	for p.check(TokenComma) {
		p.advance()
		if !p.check(TokenIdent) {
			p.addError(p.peek(), "expected column name after ','")
			break
		}
		clause.Columns = append(clause.Columns, strings.ToLower(p.advance().Literal))
	}

	return clause
}

// ── ORDER BY clause ─────────────────────────────────────────────────────────

func (p *Parser) parseOrderBy() *OrderByClause {
	p.advance() // consume 'order'
	if _, ok := p.expect(TokenBy); !ok {
		return nil
	}

	colTok, ok := p.expect(TokenIdent)
	if !ok {
		return nil
	}
	clause := &OrderByClause{Column: strings.ToLower(colTok.Literal)}

	if p.check(TokenDesc) {
		p.advance()
		clause.Desc = true
	} else if p.check(TokenAsc) {
		p.advance()
	}

	if p.check(TokenComma) {
		p.addError(p.peek(), "'order by' supports a single column")
		p.advance()
		p.synchronize()
	}

	return clause
}

// ── LIMIT / OFFSET ──────────────────────────────────────────────────────────

func (p *Parser) parseLimit() *LimitClause {
	p.advance() // consume 'limit'
	tok, ok := p.expect(TokenInt)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(tok.Literal)
	if err != nil {
		p.addError(tok, fmt.Sprintf("invalid limit value: %s", tok.Literal))
		return nil
	}
	return &LimitClause{Value: n}
}

func (p *Parser) parseOffset() *OffsetClause {
	p.advance() // consume 'offset'
	tok, ok := p.expect(TokenInt)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(tok.Literal)
	if err != nil {
		p.addError(tok, fmt.Sprintf("invalid offset value: %s", tok.Literal))
		return nil
	}
	return &OffsetClause{Value: n}
}
