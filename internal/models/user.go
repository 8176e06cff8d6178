package models

import "gorm.io/gorm"

type User struct {
	gorm.Model

	FirstName    string `gorm:"not null"`
	LastName     string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"not null;default:staff"`
	IsActive     bool   `gorm:"not null;default:true"`

	// Relationships. Tasks keep weak references to users, so deleting a user
	// is restricted while tasks still point at them; accounts are deactivated
	// via IsActive instead.
	AssignedTasks []Task `gorm:"foreignKey:AssignedToID;constraint:OnUpdate:Cascade,OnDelete:RESTRICT"`
	CreatedTasks  []Task `gorm:"foreignKey:AssignedByID;constraint:OnUpdate:Cascade,OnDelete:RESTRICT"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
