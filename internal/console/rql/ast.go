package rql

// Node is the interface implemented by all AST nodes.
type Node interface {
	nodeType() string
	Pos() int // byte offset in source
}

// Statement is the interface for top-level RQL statements.
type Statement interface {
	Node
	stmtNode()
}

// FindStmt represents:
// find <model> [where ...] [select ...] [order by ...] [limit N] [offset N] [--deleted]
type FindStmt struct {
	TokenPos    int
	Model       string
	Where       *WhereClause
	Select      *SelectClause
	OrderBy     *OrderByClause
	Limit       *LimitClause
	Offset      *OffsetClause
	WithDeleted bool
}

func (s *FindStmt) nodeType() string { return "FindStmt" }
func (s *FindStmt) Pos() int         { return s.TokenPos }
func (s *FindStmt) stmtNode()        {}

// GetStmt represents: get <model> "<id>"
type GetStmt struct {
	TokenPos int
	Model    string
	ID       string
}

func (s *GetStmt) nodeType() string { return "GetStmt" }
func (s *GetStmt) Pos() int         { return s.TokenPos }
func (s *GetStmt) stmtNode()        {}

// CountStmt represents: count <model> [where ...] [--deleted]
type CountStmt struct {
	TokenPos    int
	Model       string
	Where       *WhereClause
	WithDeleted bool
}

func (s *CountStmt) nodeType() string { return "CountStmt" }
func (s *CountStmt) Pos() int         { return s.TokenPos }
func (s *CountStmt) stmtNode()        {}

// DescribeStmt represents: describe [<model>]. Without a model it lists
// all registered models.
type DescribeStmt struct {
	TokenPos int
	Model    string
}

func (s *DescribeStmt) nodeType() string { return "DescribeStmt" }
func (s *DescribeStmt) Pos() int         { return s.TokenPos }
func (s *DescribeStmt) stmtNode()        {}

// LifecycleOp is one of the bulk row lifecycle verbs.
type LifecycleOp string

const (
	OpDelete  LifecycleOp = "delete"
	OpRestore LifecycleOp = "restore"
	OpPurge   LifecycleOp = "purge"
)

// LifecycleStmt represents: delete|restore|purge <model> "<id>" or
// delete|restore|purge <model> ["<id>", "<id>", ...]
type LifecycleStmt struct {
	TokenPos int
	Op       LifecycleOp
	Model    string
	IDs      []string
}

func (s *LifecycleStmt) nodeType() string { return "LifecycleStmt" }
func (s *LifecycleStmt) Pos() int         { return s.TokenPos }
func (s *LifecycleStmt) stmtNode()        {}

// MetaCmdStmt represents: :<command> [args...]
type MetaCmdStmt struct {
	TokenPos int
	Command  string   // e.g. "help", "models", "history"
	Args     []string // remaining tokens as raw strings
}

func (s *MetaCmdStmt) nodeType() string { return "MetaCmdStmt" }
func (s *MetaCmdStmt) Pos() int         { return s.TokenPos }
func (s *MetaCmdStmt) stmtNode()        {}

// ── Clauses ─────────────────────────────────────────────────────────────────

// WhereClause holds the predicate expression tree.
type WhereClause struct {
	Expr Expr
}

// SelectClause holds the list of columns to project.
type SelectClause struct {
	Columns []string
}

// OrderByClause holds the ordering specification. Single-column ordering
// only; the engine sorts one field at a time.
type OrderByClause struct {
	Column string
	Desc   bool
}

// LimitClause holds the result limit.
type LimitClause struct {
	Value int
}

// OffsetClause holds the result offset.
type OffsetClause struct {
	Value int
}

// ── Expressions (predicate tree) ────────────────────────────────────────────

// Expr is implemented by all expression nodes in a WHERE clause.
type Expr interface {
	Node
	exprNode()
}

// BinaryLogicExpr represents "expr AND expr" or "expr OR expr".
type BinaryLogicExpr struct {
	TokenPos int
	Op       LogicOp
	Left     Expr
	Right    Expr
}

// LogicOp is AND or OR.
type LogicOp int

const (
	LogicAnd LogicOp = iota
	LogicOr
)

func (e *BinaryLogicExpr) nodeType() string { return "BinaryLogicExpr" }
func (e *BinaryLogicExpr) Pos() int         { return e.TokenPos }
func (e *BinaryLogicExpr) exprNode()        {}

// NotExpr represents "not expr".
type NotExpr struct {
	TokenPos int
	Expr     Expr
}

func (e *NotExpr) nodeType() string { return "NotExpr" }
func (e *NotExpr) Pos() int         { return e.TokenPos }
func (e *NotExpr) exprNode()        {}

// ComparisonExpr represents "column op value".
type ComparisonExpr struct {
	TokenPos int
	Column   string
	Op       CompOp
	Value    Literal
}

// CompOp is a comparison operator.
type CompOp int

const (
	CompEQ CompOp = iota
	CompNEQ
	CompGT
	CompLT
	CompGTE
	CompLTE
	CompLike
)

// String returns the RQL operator symbol.
func (op CompOp) String() string {
	switch op {
	case CompEQ:
		return "="
	case CompNEQ:
		return "!="
	case CompGT:
		return ">"
	case CompLT:
		return "<"
	case CompGTE:
		return ">="
	case CompLTE:
		return "<="
	case CompLike:
		return "like"
	default:
		return "?"
	}
}

func (e *ComparisonExpr) nodeType() string { return "ComparisonExpr" }
func (e *ComparisonExpr) Pos() int         { return e.TokenPos }
func (e *ComparisonExpr) exprNode()        {}

// InExpr represents "column in [val1, val2, ...]".
type InExpr struct {
	TokenPos int
	Column   string
	Values   []Literal
}

func (e *InExpr) nodeType() string { return "InExpr" }
func (e *InExpr) Pos() int         { return e.TokenPos }
func (e *InExpr) exprNode()        {}

// ── Literal values ──────────────────────────────────────────────────────────

// Literal represents a constant value in RQL.
type Literal struct {
	TokenPos int
	Type     LiteralType
	Raw      string // raw token text
}

// LiteralType classifies a literal value.
type LiteralType int

const (
	LitString LiteralType = iota
	LitInt
	LitFloat
	LitBool
	LitNull
)

func (l Literal) nodeType() string { return "Literal" }
func (l Literal) Pos() int         { return l.TokenPos }
