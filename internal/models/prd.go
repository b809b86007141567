// Package models defines the domain types for prdboard.
package models

import "encoding/json"

// Document is the project-requirements document (prd.json). It is replaced
// wholesale on every successful reload and never mutated in place.
type Document struct {
	Project     string    `json:"project"`
	Description string    `json:"description"`
	Features    []Feature `json:"features"`
}

// Feature groups a set of user stories delivered on one branch.
type Feature struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	BranchName  string  `json:"branchName"`
	DependsOn   *string `json:"dependsOn"` // may reference a missing feature; never used for display
	UserStories []Story `json:"userStories"`
}

// Story is a single user story. Only Passes and StartedAt affect its status.
type Story struct {
	ID                 string      `json:"id"`
	Title              string      `json:"title"`
	Description        string      `json:"description"`
	AcceptanceCriteria []string    `json:"acceptanceCriteria"`
	Priority           int         `json:"priority"`
	Passes             bool        `json:"passes"`
	StartedAt          string      `json:"startedAt,omitempty"`
	CompletedAt        string      `json:"completedAt,omitempty"`
	DurationSeconds    *float64    `json:"durationSeconds,omitempty"`
	Notes              string      `json:"notes,omitempty"`
	TokenUsage         *TokenUsage `json:"tokenUsage,omitempty"`
}

// TokenUsage records model token consumption for a completed story.
type TokenUsage struct {
	Input       int64 `json:"input"`
	Output      int64 `json:"output"`
	CacheRead   int64 `json:"cacheRead"`
	CacheCreate int64 `json:"cacheCreate"`
	Turns       int64 `json:"turns"`
}

// UnmarshalJSON decodes a story. Optional fields holding a value of the
// wrong JSON type decode as absent instead of failing the whole document.
func (s *Story) UnmarshalJSON(data []byte) error {
	type plain Story
	aux := struct {
		*plain
		StartedAt       json.RawMessage `json:"startedAt"`
		CompletedAt     json.RawMessage `json:"completedAt"`
		DurationSeconds json.RawMessage `json:"durationSeconds"`
		Notes           json.RawMessage `json:"notes"`
		TokenUsage      json.RawMessage `json:"tokenUsage"`
	}{plain: (*plain)(s)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	s.StartedAt = optString(aux.StartedAt)
	s.CompletedAt = optString(aux.CompletedAt)
	s.Notes = optString(aux.Notes)
	s.DurationSeconds = optFloat(aux.DurationSeconds)
	s.TokenUsage = optTokenUsage(aux.TokenUsage)
	return nil
}

func optString(raw json.RawMessage) string {
	var v string
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return ""
	}
	return v
}

func optFloat(raw json.RawMessage) *float64 {
	var v *float64
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return nil
	}
	return v
}

func optTokenUsage(raw json.RawMessage) *TokenUsage {
	var v *TokenUsage
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return nil
	}
	return v
}
