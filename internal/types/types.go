package types

import (
	"github.com/founderloop/compass/internal/journey"
	"github.com/founderloop/compass/internal/journey/contextopt"
)

type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Goal        string `json:"goal,omitempty"`
}

type ProjectResponse struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Goal        string `json:"goal,omitempty"`
	Level       int    `json:"level"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type ListProjectsResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

type GetContextRequest struct {
	ProjectId string `path:"projectId"`
	Helper    string `form:"helper"`
}

type GetContextResponse struct {
	Helper       string                       `json:"helper"`
	Context      *contextopt.OptimizedContext `json:"context"`
	Instructions string                       `json:"instructions"`
}

type AppendMessageRequest struct {
	ProjectId string `path:"projectId"`
	Helper    string `json:"helper"`
	Role      string `json:"role"`
	Content   string `json:"content"`
}

type RecordTurnRequest struct {
	ProjectId        string `path:"projectId"`
	Helper           string `json:"helper"`
	UserMessage      string `json:"userMessage"`
	AssistantMessage string `json:"assistantMessage"`
}

type RecordTurnResponse struct {
	Memory journey.ProjectMemory `json:"memory"`
}

type GetMemoryRequest struct {
	ProjectId string `path:"projectId"`
}

type GetMemoryResponse struct {
	Memory journey.ProjectMemory `json:"memory"`
}

type PutMemoryRequest struct {
	ProjectId string                `path:"projectId"`
	Memory    journey.ProjectMemory `json:"memory"`
}

type UpsertTaskRequest struct {
	ProjectId   string `path:"projectId"`
	Id          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Status      string `json:"status,omitempty"`
	XpReward    int    `json:"xpReward,omitempty"`
}

type ListTasksRequest struct {
	ProjectId string `path:"projectId"`
}

type ListTasksResponse struct {
	Tasks []journey.Task `json:"tasks"`
}

type UpdateTaskStatusRequest struct {
	ProjectId string `path:"projectId"`
	TaskId    string `path:"taskId"`
	Status    string `json:"status"`
}

type CompleteTaskRequest struct {
	ProjectId string `path:"projectId"`
	TaskId    string `path:"taskId"`
	Level     int    `json:"level"`
}

type CompletedTasksResponse struct {
	Completed []journey.CompletedTask `json:"completed"`
}

type TaskGuidanceResponse struct {
	TaskId               string   `json:"taskId"`
	Helper               string   `json:"helper"`
	Guidance             string   `json:"guidance"`
	CompletionCriteria   []string `json:"completionCriteria,omitempty"`
	ProactiveSuggestions []string `json:"proactiveSuggestions,omitempty"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
