// Package schema generates the JSON Schema of the documents hookcode serves,
// for UI type generation.
package schema

import (
	"path"
	"reflect"

	"github.com/invopop/jsonschema"

	"hookcode/internal/diff"
	"hookcode/internal/model"
	"hookcode/internal/store"
	"hookcode/internal/timeline"
)

// Draft is the JSON Schema dialect of generated documents.
const Draft = "https://json-schema.org/draft/2020-12/schema"

var itemVariants = []struct {
	kind  model.ItemKind
	value model.Item
}{
	{model.ItemKindCommandExecution, &model.CommandExecution{}},
	{model.ItemKindFileChange, &model.FileChange{}},
	{model.ItemKindAgentMessage, &model.AgentMessage{}},
}

var prefixes = map[string]string{
	"diff":     "Diff",
	"timeline": "Timeline",
}

var timelineType = reflect.TypeOf(timeline.Timeline{})

// Generate returns the schema of a run document. Every timeline item
// variant and the per-file diff result are included under $defs.
func Generate() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		Namer:  defName,
		Mapper: mapType,
	}

	root := r.Reflect(&store.RunDocument{})
	root.Version = Draft
	root.Title = "hookcode run"
	root.Description = "A run's metadata, its unified execution timeline and aggregate stats."

	merge(root, r.Reflect(&diff.Result{}))
	for _, v := range itemVariants {
		merge(root, r.Reflect(v.value))
		def := root.Definitions[defName(reflect.TypeOf(v.value).Elem())]
		if def == nil || def.Properties == nil {
			continue
		}
		if typ, ok := def.Properties.Get("type"); ok {
			typ.Const = string(v.kind)
		}
	}
	return root
}

func merge(dst, src *jsonschema.Schema) {
	if dst.Definitions == nil {
		dst.Definitions = jsonschema.Definitions{}
	}
	for name, def := range src.Definitions {
		dst.Definitions[name] = def
	}
}

// defName qualifies names that would collide across packages, such as
// diff.Stats and timeline.Stats.
func defName(t reflect.Type) string {
	return prefixes[path.Base(t.PkgPath())] + t.Name()
}

// mapType describes types whose JSON shape comes from a custom marshaler.
func mapType(t reflect.Type) *jsonschema.Schema {
	if t != timelineType {
		return nil
	}

	variants := make([]*jsonschema.Schema, 0, len(itemVariants))
	for _, v := range itemVariants {
		variants = append(variants, &jsonschema.Schema{
			Ref: "#/$defs/" + defName(reflect.TypeOf(v.value).Elem()),
		})
	}

	props := jsonschema.NewProperties()
	props.Set("items", &jsonschema.Schema{
		Type:  "array",
		Items: &jsonschema.Schema{OneOf: variants},
	})
	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		Required:             []string{"items"},
		AdditionalProperties: jsonschema.FalseSchema,
	}
}
