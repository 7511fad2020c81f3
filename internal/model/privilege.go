package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "product:create"
	Name string `gorm:"type:varchar(100)" json:"name"`
}

const (
	PrivProductCreate     = "product:create"
	PrivProductUpdate     = "product:update"
	PrivProductDelete     = "product:delete"
	PrivInventoryRestock  = "inventory:restock"
	PrivCategoryManage    = "category:manage"
	PrivOrderViewAll      = "order:view_all"
	PrivOrderUpdateStatus = "order:update_status"
	PrivDashboardView     = "dashboard:view"
)

// Customers get no privileges; shopping only needs an authenticated identity.
var DefaultPrivileges = []Privilege{
	{Code: PrivProductCreate, Name: "Create Product"},
	{Code: PrivProductUpdate, Name: "Update Product"},
	{Code: PrivProductDelete, Name: "Delete Product"},
	{Code: PrivInventoryRestock, Name: "Restock Inventory"},
	{Code: PrivCategoryManage, Name: "Manage Categories"},
	{Code: PrivOrderViewAll, Name: "View All Orders"},
	{Code: PrivOrderUpdateStatus, Name: "Update Order Status"},
	{Code: PrivDashboardView, Name: "View Dashboard"},
}
