package model

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User is an account known to the identity provider
type User struct {
	BaseModel
	Email        string      `gorm:"type:varchar(255);uniqueIndex;not null" json:"email" validate:"required,email"`
	Password     string      `gorm:"type:varchar(255);not null" json:"-"`
	FullName     string      `gorm:"type:varchar(255)" json:"full_name" validate:"required"`
	RoleID       *uint       `gorm:"index" json:"role_id"`
	Role         *Role       `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	IsActive     bool        `gorm:"default:true" json:"is_active"`
	Privileges   []Privilege `gorm:"many2many:user_privileges;" json:"privileges,omitempty"`
	TokenVersion string      `gorm:"type:varchar(255);default:''" json:"-"` // single session enforcement
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// GetPrivilegeCodes returns the codes of the user's own privileges merged
// with those of the role.
func (u *User) GetPrivilegeCodes() []string {
	seen := make(map[string]struct{})
	codes := make([]string, 0, len(u.Privileges))
	add := func(ps []Privilege) {
		for _, p := range ps {
			if _, ok := seen[p.Code]; ok {
				continue
			}
			seen[p.Code] = struct{}{}
			codes = append(codes, p.Code)
		}
	}
	add(u.Privileges)
	if u.Role != nil {
		add(u.Role.Privileges)
	}
	return codes
}

// Identity is what the core cart and order operations see of a user.
func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Email: u.Email}
}

type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	Role       string    `json:"role"`
	IsActive   bool      `json:"is_active"`
	Privileges []string  `json:"privileges"`
}

func (u *User) ToResponse() UserResponse {
	role := ""
	if u.Role != nil {
		role = u.Role.Code
	}
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName,
		Role:       role,
		IsActive:   u.IsActive,
		Privileges: u.GetPrivilegeCodes(),
	}
}
