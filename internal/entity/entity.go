// Package entity declares the contracts that managed entities, forms and
// enumeration types implement, plus the option projections returned by
// autocomplete and multiselect operations.
package entity

import (
	"fmt"
	"reflect"
)

// Entity is a persistable record identified by a key of type K.
// GetID returns nil until the entity has been persisted.
type Entity[K comparable] interface {
	GetID() *K
	SetID(id K)
	GetLabel() string
}

// Activatable entities support soft activation toggling.
type Activatable interface {
	IsActive() bool
	SetActive(active bool)
}

// Validatable entities are checked before every Put.
// Implementations should return *domain.ValidationError listing all violations.
type Validatable interface {
	Validate() error
}

// Form is the untyped-request counterpart of an entity.
// A nil id means "create"; otherwise the form updates the identified entity.
type Form[K comparable] interface {
	GetID() *K
}

// SecurityRule binds a rule expression to an operation name
// (SEARCH, SAVE, DELETE, GET_BY_ID, GET_ALL).
type SecurityRule struct {
	Operation string
	Rule      string
}

// Config is the registration metadata an entity type can declare about itself.
type Config struct {
	Key            string
	DisableListAll bool
	Security       []SecurityRule
}

// Configured marks entity types that register themselves during discovery.
type Configured interface {
	CRUDConfig() Config
}

// Labeled is the type-erased view of Entity used at registry boundaries.
type Labeled interface {
	GetLabel() string
}

// FormID returns the identifier carried by form, or nil when the form
// describes a new entity. form must expose a GetID method returning a pointer.
func FormID(form any) (any, error) {
	v := reflect.ValueOf(form)
	if !v.IsValid() {
		return nil, fmt.Errorf("form is nil")
	}
	m := v.MethodByName("GetID")
	if !m.IsValid() || m.Type().NumIn() != 0 || m.Type().NumOut() != 1 {
		return nil, fmt.Errorf("form %T has no GetID method", form)
	}
	out := m.Call(nil)[0]
	if out.Kind() != reflect.Pointer {
		return nil, fmt.Errorf("form %T: GetID must return a pointer, got %s", form, out.Type())
	}
	if out.IsNil() {
		return nil, nil
	}
	return out.Elem().Interface(), nil
}
