package entity

import (
	"time"
)

// User 门户用户
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	EmployeeNo   string    `json:"employee_no" gorm:"size:32;index"`
	Username     string    `json:"username" gorm:"size:64;not null;uniqueIndex"`
	Name         string    `json:"name" gorm:"size:64;not null"`
	Email        string    `json:"email" gorm:"size:128;uniqueIndex"`
	Mobile       string    `json:"mobile" gorm:"size:20"`
	PlantID      int       `json:"plant_id" gorm:"index"`
	DepartmentID int       `json:"department_id"`
	Status       string    `json:"status" gorm:"size:16;not null;default:'active'"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
