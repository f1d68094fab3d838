package pipeline

import (
	"fmt"

	"github.com/SpecCade/SpecCade-sub006/spec"
)

// Recipe binds one recipe kind to its parser and its generator. New kinds
// register here and nowhere else.
type Recipe struct {
	Kind     string
	Parse    func(data []byte) (*spec.Document, error)
	Generate func(doc *spec.Document, opts Options) (*Result, error)
}

var recipes = map[string]Recipe{
	spec.Kind: {
		Kind:     spec.Kind,
		Parse:    spec.Parse,
		Generate: Generate,
	},
}

// Lookup returns the recipe registered for kind.
func Lookup(kind string) (Recipe, error) {
	r, ok := recipes[kind]
	if !ok {
		return Recipe{}, fmt.Errorf("unknown recipe kind %q", kind)
	}
	return r, nil
}

// Run parses raw specification bytes, dispatches on the declared recipe
// kind and generates the module in one shot.
func Run(data []byte, opts Options) (*Result, error) {
	kind, err := spec.PeekKind(data)
	if err != nil {
		return nil, err
	}
	recipe, err := Lookup(kind)
	if err != nil {
		return nil, err
	}
	doc, err := recipe.Parse(data)
	if err != nil {
		return nil, err
	}
	return recipe.Generate(doc, opts)
}
