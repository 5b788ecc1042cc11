package entity

// AutocompleteOption is the {id, name} projection used by autocomplete.
type AutocompleteOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MultiselectOption is the {id, value} projection used by multiselect widgets.
type MultiselectOption struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// SelectOption is the {value, text} projection used for enumeration types.
type SelectOption struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

// TypeValue is one constant of a named enumeration.
type TypeValue struct {
	ID          string
	Description string
}
