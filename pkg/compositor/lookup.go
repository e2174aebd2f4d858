package compositor

import (
	"fmt"
	"reflect"

	"github.com/randalmurphal/compositor/pkg/compositor/module"
)

// ModuleOf returns the owned module whose dynamic type is exactly M.
// If several modules share the type, the first one wins.
//
// Returns ErrModuleNotFound if the host owns no module of type M.
//
// Example:
//
//	kb, err := compositor.ModuleOf[*keyboard.Module](host)
func ModuleOf[M module.Module](h *Host) (M, error) {
	var zero M
	slot, ok := h.slots.Get(reflect.TypeFor[M]())
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrModuleNotFound, reflect.TypeFor[M]())
	}
	m, ok := h.modules[slot].(M)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrModuleNotFound, reflect.TypeFor[M]())
	}
	return m, nil
}

// MustModule is like ModuleOf but panics if the module is not owned.
// Use it where the module list is fixed in code.
func MustModule[M module.Module](h *Host) M {
	m, err := ModuleOf[M](h)
	if err != nil {
		panic("compositor: " + err.Error())
	}
	return m
}
