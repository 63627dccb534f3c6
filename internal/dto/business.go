package dto

type CreateBusinessRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=200"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category" validate:"required,max=100"`
	Town        string `json:"town" validate:"required,max=100"`
	Address     string `json:"address"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required,max=20"`
	Website     string `json:"website" validate:"omitempty,url"`
}

type UpdateBusinessRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=200"`
	Description *string `json:"description"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
	Town        *string `json:"town" validate:"omitempty,max=100"`
	Address     *string `json:"address"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone" validate:"omitempty,max=20"`
	Website     *string `json:"website" validate:"omitempty,url"`
}

type ListBusinessesQuery struct {
	Town     string `form:"town"`
	Category string `form:"category"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}
