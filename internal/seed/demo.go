// Package seed populates freshly created stores with demo rows so the UI
// and console have something to show on first boot.
package seed

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/matthewbaird/viewcore/internal/engine"
	"github.com/matthewbaird/viewcore/internal/model"
)

// rowsPerModel is how many demo rows Demo creates for each model.
const rowsPerModel = 8

var firstNames = []string{"Ada", "Grace", "Alan", "Edsger", "Barbara", "Donald", "Radia", "Ken"}
var lastNames = []string{"Lovelace", "Hopper", "Turing", "Dijkstra", "Liskov", "Knuth", "Perlman", "Thompson"}
var words = []string{"amber", "basalt", "cedar", "dune", "ember", "fjord", "garnet", "harbor"}
var tagPool = []string{"vip", "beta", "priority", "archive", "internal", "external"}

// Demo creates demo rows for every engine that currently has none. Rows go
// through Submit so they are validated and announced on the event bus like
// any user-created row.
func Demo(ctx context.Context, engines []*engine.Engine, actor string) {
	for _, e := range engines {
		m := e.Model()
		res, err := e.Source().Fetch(ctx, engine.Query{Page: 1, PageSize: 1})
		if err != nil {
			log.Printf("seed: %s: %v", m.Name, err)
			continue
		}
		if res.Total > 0 {
			continue
		}

		created := 0
		for i := 0; i < rowsPerModel; i++ {
			values := demoRow(m, i)
			out := e.Submit(ctx, "", values, false, actor)
			if !out.OK {
				log.Printf("seed: %s row %d rejected: %v %s", m.Name, i, out.FieldErrors, out.Error)
				continue
			}
			created++
		}
		log.Printf("seed: created %d demo rows for %s", created, m.Name)
	}
}

// demoRow builds values for one create submission. Every create-mode field
// gets a value so required columns never trip validation.
func demoRow(m engine.Model, i int) map[string]any {
	values := make(map[string]any)
	for _, c := range m.Columns {
		switch c.Type {
		case model.TypeCompound:
			for _, sf := range c.Compound.SubFields() {
				if !sf.EnabledFor(false) {
					continue
				}
				values[sf.Key] = demoValue(model.Column{
					Key:     sf.Key,
					Type:    sf.Type,
					Options: sf.Options,
				}, i)
			}
		case model.TypeActions:
			// nothing to persist
		default:
			values[c.Key] = demoValue(c, i)
		}
	}
	return values
}

func demoValue(c model.Column, i int) any {
	switch c.Type {
	case model.TypeText:
		if len(c.Options) > 0 {
			return c.Options[i%len(c.Options)].Value
		}
		return fmt.Sprintf("%s %s", firstNames[i%len(firstNames)], lastNames[i%len(lastNames)])
	case model.TypeTextarea:
		return fmt.Sprintf("Demo note about %s, row %d.", words[i%len(words)], i+1)
	case model.TypeEmail:
		return fmt.Sprintf("%s.%s@example.com",
			strings.ToLower(firstNames[i%len(firstNames)]),
			strings.ToLower(lastNames[i%len(lastNames)]))
	case model.TypeNumber:
		v := float64(10 + i*7)
		if c.Min != nil && v < *c.Min {
			v = *c.Min
		}
		if c.Max != nil && v > *c.Max {
			v = *c.Max
		}
		return v
	case model.TypeRating:
		return float64(i%5 + 1)
	case model.TypeDate:
		return time.Now().AddDate(0, 0, -i*3).Format("2006-01-02")
	case model.TypeBoolean:
		return i%2 == 0
	case model.TypeSelect:
		if len(c.Options) == 0 {
			return ""
		}
		return c.Options[i%len(c.Options)].Value
	case model.TypeMultiselect:
		if len(c.Options) == 0 {
			return []any{}
		}
		picks := []any{c.Options[i%len(c.Options)].Value}
		if len(c.Options) > 1 && i%2 == 0 {
			picks = append(picks, c.Options[(i+1)%len(c.Options)].Value)
		}
		return picks
	case model.TypeTags:
		return []any{tagPool[i%len(tagPool)], tagPool[(i+2)%len(tagPool)]}
	case model.TypeImage:
		return fmt.Sprintf("https://i.pravatar.cc/150?img=%d", i+1)
	case model.TypeCustomFields:
		return map[string]any{"source": "demo", "batch": i/4 + 1}
	default:
		return ""
	}
}
