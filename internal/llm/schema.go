package llm

// Schema is the JSON-schema subset used for structured output.
type Schema struct {
	Type       string             `json:"type"`
	Items      *Schema            `json:"items,omitempty"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	Required   []string           `json:"required,omitempty"`
	// Order keeps property order stable for providers that honour it.
	Order []string `json:"-"`
}

const (
	TypeArray   = "array"
	TypeObject  = "object"
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
)

// ArrayOf returns an array schema of item.
func ArrayOf(item *Schema) *Schema {
	return &Schema{Type: TypeArray, Items: item}
}

// String returns a string schema.
func String() *Schema { return &Schema{Type: TypeString} }

// Number returns a number schema.
func Number() *Schema { return &Schema{Type: TypeNumber} }

// Field is one named property of an object schema.
type Field struct {
	Name   string
	Schema *Schema
}

// Object returns an object schema whose fields are all required, in order.
func Object(fields ...Field) *Schema {
	s := &Schema{Type: TypeObject, Properties: make(map[string]*Schema, len(fields))}
	for _, f := range fields {
		s.Properties[f.Name] = f.Schema
		s.Required = append(s.Required, f.Name)
		s.Order = append(s.Order, f.Name)
	}
	return s
}
