package models

// SiteParams are the path parameters shared by the /v1/sites routes
type SiteParams struct {
	ID int64 `validate:"required,gt=0"`
}

// GenerateRequest carries optional pacing overrides for one generation stream
type GenerateRequest struct {
	BlockSize *int `json:"block_size,omitempty" validate:"omitempty,gt=0"`
	DelayMs   *int `json:"delay_ms,omitempty" validate:"omitempty,gte=0"`
}

// Site is the templated descriptor returned by GET /v1/sites/:id
type Site struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	GenerateURL string `json:"generate_url"`
	BlockSize   int    `json:"block_size"`
	DelayMs     int    `json:"delay_ms"`
}
