package model

// Param declares one positional process input.
type Param struct {
	Type Type `json:"type"`

	// Optional inputs may be left unset by the caller.
	Optional bool `json:"optional,omitempty"`

	// Refs marks an unsigned array whose elements are database value ids.
	// The host attaches the referenced values to the invocation.
	Refs bool `json:"refs,omitempty"`
}

// Signature declares the name and the positional input and output types of a
// process.
type Signature struct {
	Name    string  `json:"name"`
	Inputs  []Param `json:"inputs"`
	Outputs []Type  `json:"outputs"`
}

// In is shorthand for a required parameter of type t.
func In(t Type) Param {
	return Param{Type: t}
}
