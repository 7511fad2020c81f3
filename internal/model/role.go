package model

// Role groups the privileges granted to a user
type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

const (
	RoleAdmin    = "ADMIN"
	RoleCustomer = "CUSTOMER"
)

var DefaultRoles = []Role{
	{
		Code:        RoleAdmin,
		Name:        "Administrator",
		Description: "Manages catalog, inventory and orders",
	},
	{
		Code:        RoleCustomer,
		Name:        "Customer",
		Description: "Shops, holds a cart and places orders",
	},
}
