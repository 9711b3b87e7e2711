// Package autocomplete provides context-aware completions for RQL.
package autocomplete

import (
	"sort"
	"strings"

	"github.com/matthewbaird/viewcore/internal/console/planner"
	"github.com/matthewbaird/viewcore/internal/console/rql"
	"github.com/matthewbaird/viewcore/internal/model"
)

// CompletionItem is a single autocomplete suggestion.
type CompletionItem struct {
	Label      string `json:"label"`
	Kind       string `json:"kind"` // "verb", "model", "column", "operator", "value", "keyword", "command"
	Detail     string `json:"detail,omitempty"`
	InsertText string `json:"insert_text,omitempty"`
}

// Engine completes from the in-memory engine registry.
type Engine struct {
	engines planner.Engines
}

// New creates an autocomplete engine over the engine registry.
func New(engines planner.Engines) *Engine {
	return &Engine{engines: engines}
}

var verbs = []string{"find", "get", "count", "describe", "delete", "restore", "purge"}

var clauses = []string{"where", "select", "order", "limit", "offset"}

var operators = []string{"=", "!=", ">", "<", ">=", "<=", "like", "in"}

var metaCommands = []string{":help", ":clear", ":env", ":history", ":models", ":columns"}

// afterValueKeywords are suggested after a complete comparison value.
var afterValueKeywords = []string{"and", "select", "order", "limit", "offset"}

// Complete returns suggestions for the given RQL text and cursor position.
func (e *Engine) Complete(text string, cursor int) []CompletionItem {
	if cursor > len(text) {
		cursor = len(text)
	}
	prefix := text[:cursor]

	lexer := rql.NewLexer(prefix)
	tokens, _ := lexer.Tokenize()

	if len(tokens) > 0 && tokens[len(tokens)-1].Type == rql.TokenEOF {
		tokens = tokens[:len(tokens)-1]
	}

	// The last identifier counts as a partial only when the cursor sits right
	// at its end; trailing whitespace means the token is complete.
	cursorAtEndOfLastToken := false
	if len(tokens) > 0 {
		last := tokens[len(tokens)-1]
		tokenEnd := last.Pos + len(last.Literal)
		cursorAtEndOfLastToken = cursor <= tokenEnd
	}

	return e.contextualComplete(tokens, cursorAtEndOfLastToken)
}

func (e *Engine) contextualComplete(tokens []rql.Token, cursorAtEndOfLastToken bool) []CompletionItem {
	if len(tokens) == 0 {
		items := filterItems(verbs, "", "verb")
		return append(items, filterItems(metaCommands, "", "command")...)
	}

	last := tokens[len(tokens)-1]

	partial := ""
	if cursorAtEndOfLastToken && (last.Type == rql.TokenIdent || last.Type == rql.TokenMetaCmd) {
		partial = strings.ToLower(last.Literal)
		tokens = tokens[:len(tokens)-1]
	}

	if len(tokens) == 0 {
		items := filterItems(verbs, partial, "verb")
		return append(items, filterItems(metaCommands, partial, "command")...)
	}

	first := tokens[0]

	// After a verb or :columns, expect a model name
	if len(tokens) == 1 && (first.Type.IsVerb() || (first.Type == rql.TokenMetaCmd && first.Literal == ":columns")) {
		return filterItems(e.engines.Names(), partial, "model")
	}

	if len(tokens) >= 2 && first.Type.IsVerb() {
		cols := e.modelColumns(strings.ToLower(tokens[1].Literal))
		return e.completeInClauseContext(tokens[2:], cols, partial)
	}

	return nil
}

func (e *Engine) completeInClauseContext(tokens []rql.Token, cols map[string]planner.ColumnInfo, partial string) []CompletionItem {
	if len(tokens) == 0 {
		return filterItems(clauses, partial, "keyword")
	}

	last := tokens[len(tokens)-1]

	switch last.Type {
	case rql.TokenWhere, rql.TokenAnd, rql.TokenSelect, rql.TokenBy:
		return e.completeColumns(cols, partial)

	case rql.TokenIdent:
		// After a bare column name inside WHERE, suggest operators
		prev := findPrevKeyword(tokens)
		if prev == rql.TokenWhere || prev == rql.TokenAnd {
			return filterItems(operators, partial, "operator")
		}
		return filterItems(clauses, partial, "keyword")

	case rql.TokenEQ, rql.TokenNEQ, rql.TokenGT, rql.TokenLT, rql.TokenGTE, rql.TokenLTE:
		if ci, ok := fieldBeforeOp(tokens, cols); ok {
			return completeOptionValues(ci, partial)
		}

	case rql.TokenComma:
		if findClauseContext(tokens) == rql.TokenSelect {
			return e.completeColumns(cols, partial)
		}

	case rql.TokenString:
		// Partial option value being typed right after an operator
		if len(tokens) >= 2 && isComparisonOp(tokens[len(tokens)-2].Type) {
			if ci, ok := fieldBeforeOp(tokens, cols); ok {
				return completeOptionValues(ci, strings.ToLower(last.Literal))
			}
		}
		return filterItems(afterValueKeywords, partial, "keyword")

	case rql.TokenInt, rql.TokenFloat, rql.TokenBool, rql.TokenNull, rql.TokenRBrack:
		return filterItems(afterValueKeywords, partial, "keyword")

	case rql.TokenOrder:
		return filterItems([]string{"by"}, partial, "keyword")
	}

	return nil
}

// ── Completion providers ────────────────────────────────────────────────────

func (e *Engine) modelColumns(name string) map[string]planner.ColumnInfo {
	eng, err := e.engines.Get(name)
	if err != nil {
		return nil
	}
	return planner.Columns(eng.Model())
}

func (e *Engine) completeColumns(cols map[string]planner.ColumnInfo, partial string) []CompletionItem {
	var items []CompletionItem
	for key, ci := range cols {
		if partial == "" || strings.HasPrefix(key, partial) {
			items = append(items, CompletionItem{
				Label:  ci.Key,
				Kind:   "column",
				Detail: string(ci.Type),
			})
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}

func completeOptionValues(ci planner.ColumnInfo, partial string) []CompletionItem {
	if ci.Type != model.TypeSelect && ci.Type != model.TypeMultiselect {
		return nil
	}
	var items []CompletionItem
	for _, opt := range ci.Options {
		if partial == "" || strings.HasPrefix(strings.ToLower(opt.Value), partial) {
			items = append(items, CompletionItem{
				Label:      opt.Value,
				Kind:       "value",
				Detail:     opt.Label,
				InsertText: "\"" + opt.Value + "\"",
			})
		}
	}
	return items
}

// ── Helpers ─────────────────────────────────────────────────────────────────

func filterItems(candidates []string, partial, kind string) []CompletionItem {
	var items []CompletionItem
	for _, c := range candidates {
		if partial == "" || strings.HasPrefix(strings.ToLower(c), partial) {
			items = append(items, CompletionItem{Label: c, Kind: kind})
		}
	}
	return items
}

func findPrevKeyword(tokens []rql.Token) rql.TokenType {
	for i := len(tokens) - 1; i >= 0; i-- {
		t := tokens[i].Type
		if t == rql.TokenWhere || t == rql.TokenAnd || t == rql.TokenSelect || t == rql.TokenOrder {
			return t
		}
	}
	return rql.TokenEOF
}

func fieldBeforeOp(tokens []rql.Token, cols map[string]planner.ColumnInfo) (planner.ColumnInfo, bool) {
	for i := len(tokens) - 2; i >= 0; i-- {
		if tokens[i].Type == rql.TokenIdent {
			ci, ok := cols[strings.ToLower(tokens[i].Literal)]
			return ci, ok
		}
	}
	return planner.ColumnInfo{}, false
}

func isComparisonOp(t rql.TokenType) bool {
	return t == rql.TokenEQ || t == rql.TokenNEQ ||
		t == rql.TokenGT || t == rql.TokenLT ||
		t == rql.TokenGTE || t == rql.TokenLTE
}

func findClauseContext(tokens []rql.Token) rql.TokenType {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].Type.IsClause() {
			return tokens[i].Type
		}
	}
	return rql.TokenEOF
}
