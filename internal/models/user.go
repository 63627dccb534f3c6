package models

type User struct {
	BaseModel
	Name         string     `gorm:"not null" json:"name"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Role         UserRole   `gorm:"type:varchar(20);not null;default:'owner'" json:"role"`
	Status       UserStatus `gorm:"type:varchar(20);default:'active'" json:"status"`

	// Relations
	Businesses []Business `gorm:"foreignKey:UserID" json:"-"`
}
