package models

// String methods for all custom string types.
// These are required for toon serialization, which uses fmt.Stringer.

// RequirementKind
func (k RequirementKind) String() string { return string(k) }

// Priority
func (p Priority) String() string { return string(p) }

// Complexity
func (c Complexity) String() string { return string(c) }

// ScenarioKind
func (k ScenarioKind) String() string { return string(k) }

// ScenarioSource
func (s ScenarioSource) String() string { return string(s) }

// StepKeyword
func (k StepKeyword) String() string { return string(k) }

// DetailLevel
func (d DetailLevel) String() string { return string(d) }
