package models

// ValidationResult collects structural defects found in a requirement graph.
// Defects are data, never errors.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid" toon:"is_valid"`
	Errors   []string `json:"errors" toon:"errors"`
	Warnings []string `json:"warnings" toon:"warnings"`
	Score    int      `json:"score" toon:"score"`
	// Cycles holds each circular dependency as an ordered feature-id path.
	Cycles [][]string `json:"cycles,omitempty" toon:"cycles,omitempty"`
}
