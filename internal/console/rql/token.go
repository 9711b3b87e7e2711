// Package rql implements the lexer, parser, and AST for RQL, the row query
// language spoken by the admin console.
package rql

import "strings"

// TokenType identifies the kind of lexical token.
type TokenType int

const (
	// Literals and identifiers
	TokenEOF    TokenType = iota
	TokenIdent            // unquoted identifier (model name, column name)
	TokenString           // "quoted string"
	TokenInt              // 123
	TokenFloat            // 1.23
	TokenBool             // true / false
	TokenNull             // null

	// Operators
	TokenEQ    // =
	TokenNEQ   // !=
	TokenGT    // >
	TokenLT    // <
	TokenGTE   // >=
	TokenLTE   // <=
	TokenComma // ,
	TokenStar  // *

	// Grouping
	TokenLParen // (
	TokenRParen // )
	TokenLBrack // [
	TokenRBrack // ]

	// Keywords — read verbs
	TokenFind
	TokenGet
	TokenCount
	TokenDescribe

	// Keywords — row lifecycle verbs
	TokenDelete
	TokenRestore
	TokenPurge

	// Keywords — clauses
	TokenWhere
	TokenSelect
	TokenOrder
	TokenBy
	TokenLimit
	TokenOffset
	TokenAsc
	TokenDesc

	// Keywords — logical operators
	TokenAnd
	TokenOr
	TokenNot
	TokenIn
	TokenLike

	// Special
	TokenMetaCmd // :help, :models, etc.
	TokenFlag    // --deleted
	TokenComment // -- comment text
)

// String returns a human-readable name for the token type.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenIdent:
		return "identifier"
	case TokenString:
		return "string"
	case TokenInt:
		return "integer"
	case TokenFloat:
		return "float"
	case TokenBool:
		return "boolean"
	case TokenNull:
		return "null"
	case TokenEQ:
		return "="
	case TokenNEQ:
		return "!="
	case TokenGT:
		return ">"
	case TokenLT:
		return "<"
	case TokenGTE:
		return ">="
	case TokenLTE:
		return "<="
	case TokenComma:
		return ","
	case TokenStar:
		return "*"
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	case TokenLBrack:
		return "["
	case TokenRBrack:
		return "]"
	case TokenFind:
		return "find"
	case TokenGet:
		return "get"
	case TokenCount:
		return "count"
	case TokenDescribe:
		return "describe"
	case TokenDelete:
		return "delete"
	case TokenRestore:
		return "restore"
	case TokenPurge:
		return "purge"
	case TokenWhere:
		return "where"
	case TokenSelect:
		return "select"
	case TokenOrder:
		return "order"
	case TokenBy:
		return "by"
	case TokenLimit:
		return "limit"
	case TokenOffset:
		return "offset"
	case TokenAsc:
		return "asc"
	case TokenDesc:
		return "desc"
	case TokenAnd:
		return "and"
	case TokenOr:
		return "or"
	case TokenNot:
		return "not"
	case TokenIn:
		return "in"
	case TokenLike:
		return "like"
	case TokenMetaCmd:
		return "meta-command"
	case TokenFlag:
		return "flag"
	case TokenComment:
		return "comment"
	default:
		return "unknown"
	}
}

// Token represents a single lexical token in an RQL statement.
type Token struct {
	Type    TokenType
	Literal string // raw text of the token
	Pos     int    // byte offset in source
	Line    int    // 1-based line number
	Col     int    // 1-based column number
}

// keywords maps lowercase keyword strings to their token types.
var keywords = map[string]TokenType{
	"find":     TokenFind,
	"get":      TokenGet,
	"count":    TokenCount,
	"describe": TokenDescribe,
	"delete":   TokenDelete,
	"restore":  TokenRestore,
	"purge":    TokenPurge,
	"where":    TokenWhere,
	"select":   TokenSelect,
	"order":    TokenOrder,
	"by":       TokenBy,
	"limit":    TokenLimit,
	"offset":   TokenOffset,
	"asc":      TokenAsc,
	"desc":     TokenDesc,
	"and":      TokenAnd,
	"or":       TokenOr,
	"not":      TokenNot,
	"in":       TokenIn,
	"like":     TokenLike,
	"true":     TokenBool,
	"false":    TokenBool,
	"null":     TokenNull,
}

// LookupKeyword returns the keyword token type for an identifier, or
// TokenIdent if the identifier is not a keyword. Lookup is case-insensitive.
func LookupKeyword(ident string) TokenType {
	if tok, ok := keywords[strings.ToLower(ident)]; ok {
		return tok
	}
	return TokenIdent
}

// IsVerb returns true if the token type is an RQL verb keyword.
func (t TokenType) IsVerb() bool {
	switch t {
	case TokenFind, TokenGet, TokenCount, TokenDescribe,
		TokenDelete, TokenRestore, TokenPurge:
		return true
	}
	return false
}

// IsClause returns true if the token type begins a clause.
func (t TokenType) IsClause() bool {
	switch t {
	case TokenWhere, TokenSelect, TokenOrder, TokenLimit, TokenOffset:
		return true
	}
	return false
}
