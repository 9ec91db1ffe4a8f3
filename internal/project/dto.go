package project

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type ProjectResponse struct {
	ProjectID   int64  `json:"project_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func toResponse(p Project) ProjectResponse {
	return ProjectResponse{ProjectID: p.ProjectID, Name: p.Name, Description: p.Description}
}
