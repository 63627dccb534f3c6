package dto

type CreatePlanRequest struct {
	Code         string   `json:"code" validate:"required,max=50"`
	Name         string   `json:"name" validate:"required,max=100"`
	Price        float64  `json:"price" validate:"min=0"`
	Currency     string   `json:"currency" validate:"omitempty,len=3"`
	DurationDays int      `json:"duration_days" validate:"omitempty,min=1"`
	Features     []string `json:"features"`
}

type UpdatePlanRequest struct {
	Name         *string  `json:"name" validate:"omitempty,max=100"`
	Price        *float64 `json:"price" validate:"omitempty,min=0"`
	DurationDays *int     `json:"duration_days" validate:"omitempty,min=1"`
	Features     []string `json:"features"`
	IsActive     *bool    `json:"is_active"`
}
