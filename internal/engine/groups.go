package engine

import (
	"github.com/expr-lang/expr"

	"github.com/matthewbaird/viewcore/internal/model"
)

// VisibleGroups returns the form's groups in priority order, dropping groups
// whose condition evaluates false against the current form values. The
// expression sees the values under "values", e.g.
// `values.kind == "external"`. A condition that fails to compile or evaluate
// hides the group rather than erroring the form.
func VisibleGroups(f *model.FormDescriptor, values map[string]any) []model.FormGroup {
	if f == nil {
		return nil
	}
	var out []model.FormGroup
	for _, g := range f.SortedGroups() {
		if g.Condition != "" && !evalCondition(g.Condition, values) {
			continue
		}
		out = append(out, g)
	}
	return out
}

func evalCondition(cond string, values map[string]any) bool {
	prg, err := expr.Compile(cond, expr.AsBool())
	if err != nil {
		return false
	}
	out, err := expr.Run(prg, map[string]any{"values": values})
	if err != nil {
		return false
	}
	ok, _ := out.(bool)
	return ok
}
