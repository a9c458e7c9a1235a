package user

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Role string

const (
	RoleClient  Role = "CLIENT"
	RoleCleaner Role = "CLEANER"
	RoleAdmin   Role = "ADMIN"
	RoleOwner   Role = "OWNER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleCleaner, RoleAdmin, RoleOwner:
		return true
	}
	return false
}

// PermissionKey is the closed set of fine-grained admin capabilities. Unknown
// keys are rejected when a permission map is loaded or saved.
type PermissionKey string

const (
	PermManageBookings PermissionKey = "manage_bookings"
	PermManageUsers    PermissionKey = "manage_users"
	PermManageSettings PermissionKey = "manage_settings"
)

var allPermissions = []PermissionKey{PermManageBookings, PermManageUsers, PermManageSettings}

type Permissions map[PermissionKey]bool

func (p Permissions) validate() error {
	for key := range p {
		known := false
		for _, k := range allPermissions {
			if key == k {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown permission key %q", key)
		}
	}
	return nil
}

func (p Permissions) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *Permissions) Scan(value any) error {
	if value == nil {
		*p = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Permissions", value)
	}

	var decoded Permissions
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	if err := decoded.validate(); err != nil {
		return err
	}

	*p = decoded
	return nil
}

type User struct {
	gorm.Model
	Email            *string     `json:"email" gorm:"unique" validate:"required,email"`
	Password         string      `json:"-"`
	FirstName        *string     `json:"firstName" validate:"required"`
	LastName         *string     `json:"lastName" validate:"required"`
	Phone            *string     `json:"phone"`
	Role             Role        `json:"role" gorm:"default:CLIENT"`
	Permissions      Permissions `json:"adminPermissions" gorm:"type:text"`
	StripeCustomerID *string     `json:"stripeCustomerId"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.Password != "" {
		u.Password, err = generateHashPassword(u.Password)
	} else {
		u.Password, err = generateHashPassword("password")
	}

	return
}

// HasPermission answers whether the user may perform a fine-grained admin
// action. OWNER bypasses the permission map entirely; ADMIN consults it; all
// other roles are denied.
func (u *User) HasPermission(key PermissionKey) bool {
	switch u.Role {
	case RoleOwner:
		return true
	case RoleAdmin:
		return u.Permissions[key]
	default:
		return false
	}
}

func (u *User) IsStaffAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleOwner
}

func generateHashPassword(password string) (string, error) {
	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		return "", err
	}
	return string(hashedPasswordBytes), nil
}

func CheckPassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
