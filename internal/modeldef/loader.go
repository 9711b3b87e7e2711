// Package modeldef loads model definitions from CUE files. Definitions are
// authored as a `models` struct keyed by model name; each entry is unified
// against the embedded #Model schema so malformed metadata fails at load
// time with a CUE error naming the model.
package modeldef

import (
	"fmt"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/matthewbaird/viewcore/internal/engine"
	"github.com/matthewbaird/viewcore/internal/model"
)

// LoadDir loads every CUE file in dir and returns the declared models,
// sorted by name for deterministic registration order.
func LoadDir(dir string) ([]engine.Model, error) {
	ctx := cuecontext.New()

	insts := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(insts) == 0 {
		return nil, fmt.Errorf("no CUE instances in %s", dir)
	}
	if insts[0].Err != nil {
		return nil, fmt.Errorf("loading model definitions: %w", insts[0].Err)
	}

	val := ctx.BuildInstance(insts[0])
	if val.Err() != nil {
		return nil, fmt.Errorf("building model definitions: %w", val.Err())
	}
	return decodeModels(ctx, val)
}

// LoadSource compiles a single CUE source string. Used by tests and by
// embedded defaults.
func LoadSource(src string) ([]engine.Model, error) {
	ctx := cuecontext.New()
	val := ctx.CompileString(src)
	if val.Err() != nil {
		return nil, fmt.Errorf("compiling model definitions: %w", val.Err())
	}
	return decodeModels(ctx, val)
}

func decodeModels(ctx *cue.Context, val cue.Value) ([]engine.Model, error) {
	schemaVal := ctx.CompileString(modelSchema)
	if schemaVal.Err() != nil {
		return nil, fmt.Errorf("compiling model schema: %w", schemaVal.Err())
	}

	unified := val.Unify(schemaVal)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return nil, fmt.Errorf("validating model definitions: %w", err)
	}

	modelsVal := unified.LookupPath(cue.ParsePath("models"))
	if !modelsVal.Exists() {
		return nil, fmt.Errorf("model definitions missing top-level models struct")
	}

	iter, err := modelsVal.Fields()
	if err != nil {
		return nil, fmt.Errorf("iterating models: %w", err)
	}

	var out []engine.Model
	for iter.Next() {
		name := iter.Selector().Unquoted()
		var m engine.Model
		if err := iter.Value().Decode(&m); err != nil {
			return nil, fmt.Errorf("decoding model %q: %w", name, err)
		}
		if m.Name == "" {
			m.Name = name
		}
		if err := model.ValidateColumns(m.Columns); err != nil {
			return nil, fmt.Errorf("model %q: %w", name, err)
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("model definitions declare no models")
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
