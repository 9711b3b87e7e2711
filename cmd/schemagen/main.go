// cmd/schemagen emits per-model JSON artifacts from CUE model definitions:
// the column descriptors, the create and edit field sets with their default
// values, and the primary display column. Frontends consume these artifacts
// at build time instead of calling the running server.
//
// Usage:
//
//	schemagen [-models dir] [-out dir]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/matthewbaird/viewcore/internal/display"
	"github.com/matthewbaird/viewcore/internal/model"
	"github.com/matthewbaird/viewcore/internal/modeldef"
	"github.com/matthewbaird/viewcore/internal/schema"
)

type modeArtifact struct {
	Fields   []string       `json:"fields"`
	Defaults map[string]any `json:"defaults"`
}

type artifact struct {
	Name          string         `json:"name"`
	Title         string         `json:"title,omitempty"`
	Columns       []model.Column `json:"columns"`
	Create        modeArtifact   `json:"create"`
	Edit          modeArtifact   `json:"edit"`
	PrimaryColumn string         `json:"primary_column,omitempty"`
	Paranoid      bool           `json:"paranoid,omitempty"`
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("schemagen: ")

	modelDir := flag.String("models", "./models", "directory of CUE model definitions")
	outDir := flag.String("out", "./gen", "output directory for JSON artifacts")
	flag.Parse()

	models, err := modeldef.LoadDir(*modelDir)
	if err != nil {
		log.Fatalf("loading %s: %v", *modelDir, err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("creating %s: %v", *outDir, err)
	}

	for _, m := range models {
		a := artifact{
			Name:     m.Name,
			Title:    m.Title,
			Columns:  m.Columns,
			Create:   buildMode(m.Columns, m.CreateForm, false),
			Edit:     buildMode(m.Columns, m.EditForm, true),
			Paranoid: m.Paranoid,
		}
		if col, ok := display.PrimaryColumn(m.Columns); ok {
			a.PrimaryColumn = col.Key
		}

		data, err := json.MarshalIndent(a, "", "  ")
		if err != nil {
			log.Fatalf("encoding %s: %v", m.Name, err)
		}
		path := filepath.Join(*outDir, m.Name+".json")
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			log.Fatalf("writing %s: %v", path, err)
		}
		fmt.Printf("wrote %s (%d create fields, %d edit fields)\n",
			path, len(a.Create.Fields), len(a.Edit.Fields))
	}

	fmt.Printf("\nschemagen: OK — %d artifact(s)\n", len(models))
}

func buildMode(columns []model.Column, form *model.FormDescriptor, isEdit bool) modeArtifact {
	s, d := schema.Build(columns, form, isEdit)
	fields := make([]string, 0, len(s))
	for key := range s {
		fields = append(fields, key)
	}
	sort.Strings(fields)
	return modeArtifact{Fields: fields, Defaults: d}
}
