package rest

import (
	"context"
	"sync"

	"github.com/crudzilla/crudzilla/internal/entity"
	"github.com/crudzilla/crudzilla/internal/query"
)

var _ crudService = &crudServiceMock{}

type crudServiceMock struct {
	SaveFunc               func(ctx context.Context, key string, raw []byte) (any, error)
	DeleteFunc             func(ctx context.Context, key string, rawID string) error
	GetByIDFunc            func(ctx context.Context, key string, rawID string) (any, error)
	GetAllFunc             func(ctx context.Context, key string) ([]any, error)
	GetAllMultiselectFunc  func(ctx context.Context, key string) ([]entity.MultiselectOption, error)
	ToggleActiveFunc       func(ctx context.Context, key string, rawID string) (bool, error)
	SearchFunc             func(ctx context.Context, key string, params map[string]string) (query.Result[any], error)
	ProjectionFunc         func(ctx context.Context, key string, name string, params []byte) (any, error)
	AutocompleteFunc       func(ctx context.Context, key string, term string) ([]entity.AutocompleteOption, error)
	AutocompleteActiveFunc func(ctx context.Context, key string, term string) ([]entity.AutocompleteOption, error)
	AutocompleteByIDsFunc  func(ctx context.Context, key string, rawIDs []string) ([]entity.AutocompleteOption, error)
	TypesFunc              func(name string) ([]entity.SelectOption, error)
	TypesMultiselectFunc   func(name string) ([]entity.MultiselectOption, error)

	calls struct {
		Save []struct {
			Ctx context.Context
			Key string
			Raw []byte
		}
		Delete []struct {
			Ctx   context.Context
			Key   string
			RawID string
		}
		GetByID []struct {
			Ctx   context.Context
			Key   string
			RawID string
		}
		GetAll []struct {
			Ctx context.Context
			Key string
		}
		GetAllMultiselect []struct {
			Ctx context.Context
			Key string
		}
		ToggleActive []struct {
			Ctx   context.Context
			Key   string
			RawID string
		}
		Search []struct {
			Ctx    context.Context
			Key    string
			Params map[string]string
		}
		Projection []struct {
			Ctx    context.Context
			Key    string
			Name   string
			Params []byte
		}
		Autocomplete []struct {
			Ctx  context.Context
			Key  string
			Term string
		}
		AutocompleteActive []struct {
			Ctx  context.Context
			Key  string
			Term string
		}
		AutocompleteByIDs []struct {
			Ctx    context.Context
			Key    string
			RawIDs []string
		}
		Types []struct {
			Name string
		}
		TypesMultiselect []struct {
			Name string
		}
	}
	lockSave               sync.RWMutex
	lockDelete             sync.RWMutex
	lockGetByID            sync.RWMutex
	lockGetAll             sync.RWMutex
	lockGetAllMultiselect  sync.RWMutex
	lockToggleActive       sync.RWMutex
	lockSearch             sync.RWMutex
	lockProjection         sync.RWMutex
	lockAutocomplete       sync.RWMutex
	lockAutocompleteActive sync.RWMutex
	lockAutocompleteByIDs  sync.RWMutex
	lockTypes              sync.RWMutex
	lockTypesMultiselect   sync.RWMutex
}

func (mock *crudServiceMock) Save(ctx context.Context, key string, raw []byte) (any, error) {
	if mock.SaveFunc == nil {
		panic("crudServiceMock.SaveFunc: method is nil but crudService.Save was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Key string
		Raw []byte
	}{Ctx: ctx, Key: key, Raw: raw}
	mock.lockSave.Lock()
	mock.calls.Save = append(mock.calls.Save, callInfo)
	mock.lockSave.Unlock()
	return mock.SaveFunc(ctx, key, raw)
}

func (mock *crudServiceMock) SaveCalls() []struct {
	Ctx context.Context
	Key string
	Raw []byte
} {
	mock.lockSave.RLock()
	calls := mock.calls.Save
	mock.lockSave.RUnlock()
	return calls
}

func (mock *crudServiceMock) Delete(ctx context.Context, key string, rawID string) error {
	if mock.DeleteFunc == nil {
		panic("crudServiceMock.DeleteFunc: method is nil but crudService.Delete was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		Key   string
		RawID string
	}{Ctx: ctx, Key: key, RawID: rawID}
	mock.lockDelete.Lock()
	mock.calls.Delete = append(mock.calls.Delete, callInfo)
	mock.lockDelete.Unlock()
	return mock.DeleteFunc(ctx, key, rawID)
}

func (mock *crudServiceMock) DeleteCalls() []struct {
	Ctx   context.Context
	Key   string
	RawID string
} {
	mock.lockDelete.RLock()
	calls := mock.calls.Delete
	mock.lockDelete.RUnlock()
	return calls
}

func (mock *crudServiceMock) GetByID(ctx context.Context, key string, rawID string) (any, error) {
	if mock.GetByIDFunc == nil {
		panic("crudServiceMock.GetByIDFunc: method is nil but crudService.GetByID was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		Key   string
		RawID string
	}{Ctx: ctx, Key: key, RawID: rawID}
	mock.lockGetByID.Lock()
	mock.calls.GetByID = append(mock.calls.GetByID, callInfo)
	mock.lockGetByID.Unlock()
	return mock.GetByIDFunc(ctx, key, rawID)
}

func (mock *crudServiceMock) GetByIDCalls() []struct {
	Ctx   context.Context
	Key   string
	RawID string
} {
	mock.lockGetByID.RLock()
	calls := mock.calls.GetByID
	mock.lockGetByID.RUnlock()
	return calls
}

func (mock *crudServiceMock) GetAll(ctx context.Context, key string) ([]any, error) {
	if mock.GetAllFunc == nil {
		panic("crudServiceMock.GetAllFunc: method is nil but crudService.GetAll was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Key string
	}{Ctx: ctx, Key: key}
	mock.lockGetAll.Lock()
	mock.calls.GetAll = append(mock.calls.GetAll, callInfo)
	mock.lockGetAll.Unlock()
	return mock.GetAllFunc(ctx, key)
}

func (mock *crudServiceMock) GetAllCalls() []struct {
	Ctx context.Context
	Key string
} {
	mock.lockGetAll.RLock()
	calls := mock.calls.GetAll
	mock.lockGetAll.RUnlock()
	return calls
}

func (mock *crudServiceMock) GetAllMultiselect(ctx context.Context, key string) ([]entity.MultiselectOption, error) {
	if mock.GetAllMultiselectFunc == nil {
		panic("crudServiceMock.GetAllMultiselectFunc: method is nil but crudService.GetAllMultiselect was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Key string
	}{Ctx: ctx, Key: key}
	mock.lockGetAllMultiselect.Lock()
	mock.calls.GetAllMultiselect = append(mock.calls.GetAllMultiselect, callInfo)
	mock.lockGetAllMultiselect.Unlock()
	return mock.GetAllMultiselectFunc(ctx, key)
}

func (mock *crudServiceMock) GetAllMultiselectCalls() []struct {
	Ctx context.Context
	Key string
} {
	mock.lockGetAllMultiselect.RLock()
	calls := mock.calls.GetAllMultiselect
	mock.lockGetAllMultiselect.RUnlock()
	return calls
}

func (mock *crudServiceMock) ToggleActive(ctx context.Context, key string, rawID string) (bool, error) {
	if mock.ToggleActiveFunc == nil {
		panic("crudServiceMock.ToggleActiveFunc: method is nil but crudService.ToggleActive was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		Key   string
		RawID string
	}{Ctx: ctx, Key: key, RawID: rawID}
	mock.lockToggleActive.Lock()
	mock.calls.ToggleActive = append(mock.calls.ToggleActive, callInfo)
	mock.lockToggleActive.Unlock()
	return mock.ToggleActiveFunc(ctx, key, rawID)
}

func (mock *crudServiceMock) ToggleActiveCalls() []struct {
	Ctx   context.Context
	Key   string
	RawID string
} {
	mock.lockToggleActive.RLock()
	calls := mock.calls.ToggleActive
	mock.lockToggleActive.RUnlock()
	return calls
}

func (mock *crudServiceMock) Search(ctx context.Context, key string, params map[string]string) (query.Result[any], error) {
	if mock.SearchFunc == nil {
		panic("crudServiceMock.SearchFunc: method is nil but crudService.Search was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		Key    string
		Params map[string]string
	}{Ctx: ctx, Key: key, Params: params}
	mock.lockSearch.Lock()
	mock.calls.Search = append(mock.calls.Search, callInfo)
	mock.lockSearch.Unlock()
	return mock.SearchFunc(ctx, key, params)
}

func (mock *crudServiceMock) SearchCalls() []struct {
	Ctx    context.Context
	Key    string
	Params map[string]string
} {
	mock.lockSearch.RLock()
	calls := mock.calls.Search
	mock.lockSearch.RUnlock()
	return calls
}

func (mock *crudServiceMock) Projection(ctx context.Context, key string, name string, params []byte) (any, error) {
	if mock.ProjectionFunc == nil {
		panic("crudServiceMock.ProjectionFunc: method is nil but crudService.Projection was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		Key    string
		Name   string
		Params []byte
	}{Ctx: ctx, Key: key, Name: name, Params: params}
	mock.lockProjection.Lock()
	mock.calls.Projection = append(mock.calls.Projection, callInfo)
	mock.lockProjection.Unlock()
	return mock.ProjectionFunc(ctx, key, name, params)
}

func (mock *crudServiceMock) ProjectionCalls() []struct {
	Ctx    context.Context
	Key    string
	Name   string
	Params []byte
} {
	mock.lockProjection.RLock()
	calls := mock.calls.Projection
	mock.lockProjection.RUnlock()
	return calls
}

func (mock *crudServiceMock) Autocomplete(ctx context.Context, key string, term string) ([]entity.AutocompleteOption, error) {
	if mock.AutocompleteFunc == nil {
		panic("crudServiceMock.AutocompleteFunc: method is nil but crudService.Autocomplete was just called")
	}
	callInfo := struct {
		Ctx  context.Context
		Key  string
		Term string
	}{Ctx: ctx, Key: key, Term: term}
	mock.lockAutocomplete.Lock()
	mock.calls.Autocomplete = append(mock.calls.Autocomplete, callInfo)
	mock.lockAutocomplete.Unlock()
	return mock.AutocompleteFunc(ctx, key, term)
}

func (mock *crudServiceMock) AutocompleteCalls() []struct {
	Ctx  context.Context
	Key  string
	Term string
} {
	mock.lockAutocomplete.RLock()
	calls := mock.calls.Autocomplete
	mock.lockAutocomplete.RUnlock()
	return calls
}

func (mock *crudServiceMock) AutocompleteActive(ctx context.Context, key string, term string) ([]entity.AutocompleteOption, error) {
	if mock.AutocompleteActiveFunc == nil {
		panic("crudServiceMock.AutocompleteActiveFunc: method is nil but crudService.AutocompleteActive was just called")
	}
	callInfo := struct {
		Ctx  context.Context
		Key  string
		Term string
	}{Ctx: ctx, Key: key, Term: term}
	mock.lockAutocompleteActive.Lock()
	mock.calls.AutocompleteActive = append(mock.calls.AutocompleteActive, callInfo)
	mock.lockAutocompleteActive.Unlock()
	return mock.AutocompleteActiveFunc(ctx, key, term)
}

func (mock *crudServiceMock) AutocompleteActiveCalls() []struct {
	Ctx  context.Context
	Key  string
	Term string
} {
	mock.lockAutocompleteActive.RLock()
	calls := mock.calls.AutocompleteActive
	mock.lockAutocompleteActive.RUnlock()
	return calls
}

func (mock *crudServiceMock) AutocompleteByIDs(ctx context.Context, key string, rawIDs []string) ([]entity.AutocompleteOption, error) {
	if mock.AutocompleteByIDsFunc == nil {
		panic("crudServiceMock.AutocompleteByIDsFunc: method is nil but crudService.AutocompleteByIDs was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		Key    string
		RawIDs []string
	}{Ctx: ctx, Key: key, RawIDs: rawIDs}
	mock.lockAutocompleteByIDs.Lock()
	mock.calls.AutocompleteByIDs = append(mock.calls.AutocompleteByIDs, callInfo)
	mock.lockAutocompleteByIDs.Unlock()
	return mock.AutocompleteByIDsFunc(ctx, key, rawIDs)
}

func (mock *crudServiceMock) AutocompleteByIDsCalls() []struct {
	Ctx    context.Context
	Key    string
	RawIDs []string
} {
	mock.lockAutocompleteByIDs.RLock()
	calls := mock.calls.AutocompleteByIDs
	mock.lockAutocompleteByIDs.RUnlock()
	return calls
}

func (mock *crudServiceMock) Types(name string) ([]entity.SelectOption, error) {
	if mock.TypesFunc == nil {
		panic("crudServiceMock.TypesFunc: method is nil but crudService.Types was just called")
	}
	callInfo := struct {
		Name string
	}{Name: name}
	mock.lockTypes.Lock()
	mock.calls.Types = append(mock.calls.Types, callInfo)
	mock.lockTypes.Unlock()
	return mock.TypesFunc(name)
}

func (mock *crudServiceMock) TypesCalls() []struct {
	Name string
} {
	mock.lockTypes.RLock()
	calls := mock.calls.Types
	mock.lockTypes.RUnlock()
	return calls
}

func (mock *crudServiceMock) TypesMultiselect(name string) ([]entity.MultiselectOption, error) {
	if mock.TypesMultiselectFunc == nil {
		panic("crudServiceMock.TypesMultiselectFunc: method is nil but crudService.TypesMultiselect was just called")
	}
	callInfo := struct {
		Name string
	}{Name: name}
	mock.lockTypesMultiselect.Lock()
	mock.calls.TypesMultiselect = append(mock.calls.TypesMultiselect, callInfo)
	mock.lockTypesMultiselect.Unlock()
	return mock.TypesMultiselectFunc(name)
}

func (mock *crudServiceMock) TypesMultiselectCalls() []struct {
	Name string
} {
	mock.lockTypesMultiselect.RLock()
	calls := mock.calls.TypesMultiselect
	mock.lockTypesMultiselect.RUnlock()
	return calls
}
