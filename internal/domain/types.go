package domain

// ID is used across domain entities.
type ID int64

// Role names carried in bearer tokens.
const (
	RoleAdmin    = "admin"
	RoleVendor   = "vendor"
	RoleCustomer = "customer"
)

// RequestContext carries authenticated caller info when available.
type RequestContext struct {
	UserID   ID     `json:"userId"`
	VendorID ID     `json:"vendorId"`
	Role     string `json:"role"`
}
