package prompt

import (
	"sort"

	"github.com/edaniels/golog"
	"github.com/mitchellh/copystructure"
	"github.com/pkg/errors"

	"github.com/overheadlabs/geomask/utils"
)

// A CreateModel constructs a model from free-form attributes.
type CreateModel func(conf utils.AttributeMap, logger golog.Logger) (Model, error)

// Registration stores a model constructor (mandatory) along with the
// attribute names the constructor understands.
type Registration struct {
	Constructor CreateModel
	Parameters  []utils.TypedName
}

var modelRegistry = make(map[string]Registration)

// RegisterModel registers a model constructor to a name.
func RegisterModel(name string, reg Registration) {
	if !utils.ValidNameRegex.MatchString(name) {
		panic(utils.ErrInvalidName(name))
	}
	if _, old := modelRegistry[name]; old {
		panic(errors.Errorf("trying to register two models with the same name: %s", name))
	}
	if reg.Constructor == nil {
		panic(errors.Errorf("cannot register a nil constructor for model: %s", name))
	}
	modelRegistry[name] = reg
}

// ModelLookup looks up a model registration by name. nil is returned if
// there is no registration.
func ModelLookup(name string) *Registration {
	registration, ok := RegisteredModels()[name]
	if ok {
		return &registration
	}
	return nil
}

// RegisteredModels returns a copy of the registered models.
func RegisteredModels() map[string]Registration {
	copied, err := copystructure.Copy(modelRegistry)
	if err != nil {
		panic(err)
	}
	return copied.(map[string]Registration)
}

// RegisteredModelNames returns the registered model names, sorted.
func RegisteredModelNames() []string {
	names := make([]string, 0, len(modelRegistry))
	for name := range modelRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
