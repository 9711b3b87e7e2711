package rql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexer_Keywords(t *testing.T) {
	input := "find contacts where status = \"active\" limit 10"
	lexer := NewLexer(input)
	tokens, errs := lexer.Tokenize()
	require.Empty(t, errs)

	expected := []struct {
		typ TokenType
		lit string
	}{
		{TokenFind, "find"},
		{TokenIdent, "contacts"},
		{TokenWhere, "where"},
		{TokenIdent, "status"},
		{TokenEQ, "="},
		{TokenString, "active"},
		{TokenLimit, "limit"},
		{TokenInt, "10"},
		{TokenEOF, ""},
	}

	require.Len(t, tokens, len(expected))
	for i, exp := range expected {
		assert.Equal(t, exp.typ, tokens[i].Type, "token %d type", i)
		assert.Equal(t, exp.lit, tokens[i].Literal, "token %d literal", i)
	}
}

func TestLexer_CaseInsensitiveKeywords(t *testing.T) {
	input := "FIND Contacts WHERE Status"
	lexer := NewLexer(input)
	tokens, errs := lexer.Tokenize()
	require.Empty(t, errs)

	assert.Equal(t, TokenFind, tokens[0].Type)
	assert.Equal(t, TokenIdent, tokens[1].Type)
	assert.Equal(t, TokenWhere, tokens[2].Type)
	assert.Equal(t, TokenIdent, tokens[3].Type)
}

func TestLexer_Operators(t *testing.T) {
	input := `= != > < >= <=`
	lexer := NewLexer(input)
	tokens, errs := lexer.Tokenize()
	require.Empty(t, errs)

	expected := []TokenType{TokenEQ, TokenNEQ, TokenGT, TokenLT, TokenGTE, TokenLTE, TokenEOF}
	for i, exp := range expected {
		assert.Equal(t, exp, tokens[i].Type, "token %d", i)
	}
}

func TestLexer_StringLiterals(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"hello"`, "hello"},
		{`'world'`, "world"},
		{`"with \"escape\""`, `with "escape"`},
		{`"line\nbreak"`, "line\nbreak"},
	}

	for _, tt := range tests {
		lexer := NewLexer(tt.input)
		tokens, errs := lexer.Tokenize()
		require.Empty(t, errs)
		require.GreaterOrEqual(t, len(tokens), 2)
		assert.Equal(t, TokenString, tokens[0].Type)
		assert.Equal(t, tt.expected, tokens[0].Literal)
	}
}

func TestLexer_UnterminatedString(t *testing.T) {
	lexer := NewLexer(`find contacts where name = "Ada`)
	_, errs := lexer.Tokenize()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "unterminated string")
}

func TestLexer_Numbers(t *testing.T) {
	input := "42 3.14 0 100"
	lexer := NewLexer(input)
	tokens, errs := lexer.Tokenize()
	require.Empty(t, errs)

	assert.Equal(t, TokenInt, tokens[0].Type)
	assert.Equal(t, "42", tokens[0].Literal)

	assert.Equal(t, TokenFloat, tokens[1].Type)
	assert.Equal(t, "3.14", tokens[1].Literal)

	assert.Equal(t, TokenInt, tokens[2].Type)
	assert.Equal(t, "0", tokens[2].Literal)
}

func TestLexer_MetaCommand(t *testing.T) {
	input := ":help find"
	lexer := NewLexer(input)
	tokens, errs := lexer.Tokenize()
	require.Empty(t, errs)

	assert.Equal(t, TokenMetaCmd, tokens[0].Type)
	assert.Equal(t, ":help", tokens[0].Literal)
	assert.Equal(t, TokenFind, tokens[1].Type)
}

func TestLexer_Flag(t *testing.T) {
	input := "count contacts --deleted"
	lexer := NewLexer(input)
	tokens, errs := lexer.Tokenize()
	require.Empty(t, errs)

	assert.Equal(t, TokenCount, tokens[0].Type)
	assert.Equal(t, TokenIdent, tokens[1].Type)
	assert.Equal(t, TokenFlag, tokens[2].Type)
	assert.Equal(t, "--deleted", tokens[2].Literal)
}

func TestLexer_CommentsDropped(t *testing.T) {
	input := "find contacts -- only the verb and model survive\nlimit 5"
	lexer := NewLexer(input)
	tokens, errs := lexer.Tokenize()
	require.Empty(t, errs)

	expected := []TokenType{TokenFind, TokenIdent, TokenLimit, TokenInt, TokenEOF}
	require.Len(t, tokens, len(expected))
	for i, exp := range expected {
		assert.Equal(t, exp, tokens[i].Type, "token %d", i)
	}
}

func TestLexer_UnexpectedCharacter(t *testing.T) {
	lexer := NewLexer("find contacts @ limit 1")
	_, errs := lexer.Tokenize()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "unexpected character")
}

func TestLexer_Brackets(t *testing.T) {
	input := `delete contacts ["a", "b"]`
	lexer := NewLexer(input)
	tokens, errs := lexer.Tokenize()
	require.Empty(t, errs)

	expected := []TokenType{
		TokenDelete, TokenIdent, TokenLBrack,
		TokenString, TokenComma, TokenString,
		TokenRBrack, TokenEOF,
	}
	require.Len(t, tokens, len(expected))
	for i, exp := range expected {
		assert.Equal(t, exp, tokens[i].Type, "token %d", i)
	}
}
