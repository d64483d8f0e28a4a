package main

import (
	"time"

	"github.com/skyradar/reqcover/analysis"
	"github.com/skyradar/reqcover/requirement"
)

// API request and response models

// CreateRequirementRequest represents the request body for creating or
// updating a requirement
type CreateRequirementRequest struct {
	ID         string            `json:"id" example:"SKYRADAR-MSAW-025"`
	Title      string            `json:"title" example:"An MSAW alert shall be generated for an eligible track"`
	Observable string            `json:"observable,omitempty" example:"alert"`
	Variables  map[string]string `json:"variables"`
	Conditions []string          `json:"conditions"`
}

// ConditionResponse represents one condition in API responses
type ConditionResponse struct {
	ID        string   `json:"id" example:"C1"`
	Text      string   `json:"text" example:"status == \"OPERATIONAL\""`
	Kind      string   `json:"kind" example:"simple"`
	Disjuncts []string `json:"disjuncts,omitempty"`
}

// RequirementResponse represents a requirement in API responses
type RequirementResponse struct {
	ID         string              `json:"id" example:"SKYRADAR-MSAW-025"`
	Title      string              `json:"title"`
	Observable string              `json:"observable" example:"alert"`
	Variables  map[string]string   `json:"variables"`
	Conditions []ConditionResponse `json:"conditions"`
	Active     bool                `json:"active" example:"true"`
	CreatedAt  time.Time           `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt  time.Time           `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

// RequirementsListResponse represents the response for listing requirements
type RequirementsListResponse struct {
	Requirements []RequirementResponse `json:"requirements"`
}

// AnalyzeRequest represents the request body for running an analysis.
// Scenarios carries inline XML documents; ScenarioDir names a server-local
// corpus directory. Inline documents win when both are given
type AnalyzeRequest struct {
	RequirementID string   `json:"requirementId" example:"SKYRADAR-MSAW-025"`
	ScenarioDir   string   `json:"scenarioDir,omitempty" example:"/corpora/msaw-025"`
	Scenarios     []string `json:"scenarios,omitempty"`
}

// AnalyzeResponse represents the response for an analysis run
type AnalyzeResponse struct {
	Reports      []*analysis.Report `json:"reports"`
	AnalysisTime string             `json:"analysisTime" example:"2.3ms"`
}

func toRequirementResponse(req *requirement.Requirement) RequirementResponse {
	conditions := make([]ConditionResponse, 0, len(req.Conditions))
	for _, c := range req.Conditions {
		cr := ConditionResponse{
			ID:   c.ID,
			Text: c.Text,
			Kind: c.Kind.String(),
		}
		if c.Kind == requirement.Or {
			for _, d := range c.Disjuncts {
				cr.Disjuncts = append(cr.Disjuncts, d.Expression)
			}
		}
		conditions = append(conditions, cr)
	}
	return RequirementResponse{
		ID:         req.ID,
		Title:      req.Title,
		Observable: req.Observable,
		Variables:  req.Schema,
		Conditions: conditions,
		Active:     req.Active,
		CreatedAt:  req.CreatedAt,
		UpdatedAt:  req.UpdatedAt,
	}
}
