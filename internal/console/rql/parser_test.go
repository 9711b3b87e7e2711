package rql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, input string) ([]Statement, []*ParseError) {
	t.Helper()
	lexer := NewLexer(input)
	tokens, lexErrs := lexer.Tokenize()
	require.Empty(t, lexErrs)
	parser := NewParser(tokens)
	return parser.Parse()
}

func parseOne(t *testing.T, input string) Statement {
	t.Helper()
	stmts, errs := parse(t, input)
	require.Empty(t, errs)
	require.Len(t, stmts, 1)
	return stmts[0]
}

func TestParser_FindAllClauses(t *testing.T) {
	stmt := parseOne(t, `find contacts where status = "active" select name, email order by score desc limit 20 offset 5 --deleted`)

	find, ok := stmt.(*FindStmt)
	require.True(t, ok)
	assert.Equal(t, "contacts", find.Model)
	require.NotNil(t, find.Where)
	require.NotNil(t, find.Select)
	assert.Equal(t, []string{"name", "email"}, find.Select.Columns)
	require.NotNil(t, find.OrderBy)
	assert.Equal(t, "score", find.OrderBy.Column)
	assert.True(t, find.OrderBy.Desc)
	require.NotNil(t, find.Limit)
	assert.Equal(t, 20, find.Limit.Value)
	require.NotNil(t, find.Offset)
	assert.Equal(t, 5, find.Offset.Value)
	assert.True(t, find.WithDeleted)
}

func TestParser_FindSelectStar(t *testing.T) {
	stmt := parseOne(t, "find contacts select *")
	find := stmt.(*FindStmt)
	assert.Nil(t, find.Select, "select * means the default projection")
}

func TestParser_FindDuplicateClause(t *testing.T) {
	_, errs := parse(t, "find contacts limit 1 limit 2")
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "duplicate 'limit' clause")
}

func TestParser_WhereAndChain(t *testing.T) {
	stmt := parseOne(t, `find contacts where status = "active" and score >= 3`)
	find := stmt.(*FindStmt)
	require.NotNil(t, find.Where)

	logic, ok := find.Where.Expr.(*BinaryLogicExpr)
	require.True(t, ok)
	assert.Equal(t, LogicAnd, logic.Op)

	left := logic.Left.(*ComparisonExpr)
	assert.Equal(t, "status", left.Column)
	assert.Equal(t, CompEQ, left.Op)

	right := logic.Right.(*ComparisonExpr)
	assert.Equal(t, "score", right.Column)
	assert.Equal(t, CompGTE, right.Op)
}

func TestParser_WhereInList(t *testing.T) {
	stmt := parseOne(t, `find contacts where status in ["active", "retired"]`)
	find := stmt.(*FindStmt)

	in, ok := find.Where.Expr.(*InExpr)
	require.True(t, ok)
	assert.Equal(t, "status", in.Column)
	require.Len(t, in.Values, 2)
	assert.Equal(t, "active", in.Values[0].Raw)
	assert.Equal(t, "retired", in.Values[1].Raw)
}

func TestParser_WhereLike(t *testing.T) {
	stmt := parseOne(t, `find contacts where email like "%@example.com"`)
	find := stmt.(*FindStmt)

	cmp, ok := find.Where.Expr.(*ComparisonExpr)
	require.True(t, ok)
	assert.Equal(t, CompLike, cmp.Op)
	assert.Equal(t, "%@example.com", cmp.Value.Raw)
}

func TestParser_Get(t *testing.T) {
	stmt := parseOne(t, `get contacts "r-42"`)
	get := stmt.(*GetStmt)
	assert.Equal(t, "contacts", get.Model)
	assert.Equal(t, "r-42", get.ID)
}

func TestParser_GetMissingID(t *testing.T) {
	_, errs := parse(t, "get contacts")
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "expected string")
}

func TestParser_CountWithFlag(t *testing.T) {
	stmt := parseOne(t, `count contacts where score > 2 --deleted`)
	count := stmt.(*CountStmt)
	assert.Equal(t, "contacts", count.Model)
	assert.NotNil(t, count.Where)
	assert.True(t, count.WithDeleted)
}

func TestParser_Describe(t *testing.T) {
	stmt := parseOne(t, "describe contacts")
	desc := stmt.(*DescribeStmt)
	assert.Equal(t, "contacts", desc.Model)

	stmt = parseOne(t, "describe")
	desc = stmt.(*DescribeStmt)
	assert.Empty(t, desc.Model)
}

func TestParser_LifecycleSingleID(t *testing.T) {
	stmt := parseOne(t, `delete contacts "r-1"`)
	lc := stmt.(*LifecycleStmt)
	assert.Equal(t, OpDelete, lc.Op)
	assert.Equal(t, "contacts", lc.Model)
	assert.Equal(t, []string{"r-1"}, lc.IDs)
}

func TestParser_LifecycleIDList(t *testing.T) {
	stmt := parseOne(t, `restore contacts ["r-1", "r-2", "r-3"]`)
	lc := stmt.(*LifecycleStmt)
	assert.Equal(t, OpRestore, lc.Op)
	assert.Equal(t, []string{"r-1", "r-2", "r-3"}, lc.IDs)
}

func TestParser_LifecycleMissingIDs(t *testing.T) {
	_, errs := parse(t, "purge contacts")
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "expected a quoted id")
}

func TestParser_MetaCommand(t *testing.T) {
	stmt := parseOne(t, ":columns contacts")
	cmd := stmt.(*MetaCmdStmt)
	assert.Equal(t, "columns", cmd.Command)
	assert.Equal(t, []string{"contacts"}, cmd.Args)
}

func TestParser_UnknownVerb(t *testing.T) {
	_, errs := parse(t, "frobnicate contacts")
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "expected an RQL verb")
}

func TestParser_OrderByMultipleColumnsRejected(t *testing.T) {
	_, errs := parse(t, "find contacts order by name, score")
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "single column")
}

func TestParser_UnknownFlag(t *testing.T) {
	_, errs := parse(t, "find contacts --everything")
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "unknown flag")
}
