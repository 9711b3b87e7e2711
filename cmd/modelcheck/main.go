// cmd/modelcheck validates a directory of CUE model definitions without
// starting the server.
//
// It runs the same loader the server uses, so anything modelcheck accepts
// the server will accept: CUE syntax and constraint errors, unknown column
// types, duplicate keys, and malformed compound configurations all surface
// here.
//
// Usage:
//
//	modelcheck [dir]
//
// dir defaults to ./models.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/matthewbaird/viewcore/internal/display"
	"github.com/matthewbaird/viewcore/internal/modeldef"
	"github.com/matthewbaird/viewcore/internal/schema"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("modelcheck: ")

	dir := "./models"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	models, err := modeldef.LoadDir(dir)
	if err != nil {
		log.Fatalf("loading %s: %v", dir, err)
	}

	for _, m := range models {
		createSchema, _ := schema.Build(m.Columns, m.CreateForm, false)
		editSchema, _ := schema.Build(m.Columns, m.EditForm, true)

		primary := "(none)"
		if col, ok := display.PrimaryColumn(m.Columns); ok {
			primary = col.Key
		}

		fmt.Printf("%s: %d columns, %d create fields, %d edit fields, primary=%s",
			m.Name, len(m.Columns), len(createSchema), len(editSchema), primary)
		if m.Paranoid {
			fmt.Print(", soft-delete")
		}
		if m.EditCondition != "" {
			fmt.Printf(", edit condition %q", m.EditCondition)
		}
		fmt.Println()
	}

	fmt.Printf("\nmodelcheck: OK — %d model(s) valid\n", len(models))
}
