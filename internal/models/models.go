package models

import (
	"time"
)

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"

	StatusActive   = "Active"
	StatusInactive = "Inactive"

	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
	// StatusDenied is accepted on input and stored as StatusRejected.
	StatusDenied = "Denied"

	WorkflowDepartmentTransfer = "Department Transfer"
)

type Account struct {
	ID                uint       `gorm:"primaryKey;autoIncrement"       json:"id"`
	Title             string     `gorm:"size:32"                        json:"title"`
	FirstName         string     `gorm:"size:100;not null"              json:"firstName"`
	LastName          string     `gorm:"size:100;not null"              json:"lastName"`
	Email             string     `gorm:"size:255;uniqueIndex;not null"  json:"email"`
	PasswordHash      string     `gorm:"not null"                       json:"-"`
	AcceptTerms       bool       `gorm:"not null"                       json:"acceptTerms"`
	Role              string     `gorm:"size:16;not null"               json:"role"`
	Status            string     `gorm:"size:16;not null"               json:"status"`
	VerificationToken *string    `gorm:"size:64;index"                  json:"-"`
	Verified          *time.Time `json:"verified,omitempty"`
	ResetToken        *string    `gorm:"size:64;index"                  json:"-"`
	ResetTokenExpires *time.Time `json:"-"`
	PasswordReset     *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"created"`
	UpdatedAt         time.Time  `json:"updated"`

	RefreshTokens []RefreshToken `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (a *Account) IsVerified() bool {
	return a.Verified != nil || a.PasswordReset != nil
}

func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type Department struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"      json:"id"`
	Name        string    `gorm:"size:128;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"size:1024"                     json:"description"`
	CreatedAt   time.Time `json:"created"`
	UpdatedAt   time.Time `json:"updated"`

	EmployeeCount int64 `gorm:"-" json:"employeeCount"`
}

type Employee struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"     json:"id"`
	EmployeeID   string    `gorm:"size:64;uniqueIndex;not null" json:"employeeId"`
	Position     string    `gorm:"size:128;not null"            json:"position"`
	DepartmentID *uint     `gorm:"index"                        json:"departmentId"`
	HireDate     time.Time `gorm:"not null"                     json:"hireDate"`
	Status       string    `gorm:"size:16;not null"             json:"status"`
	UserID       uint      `gorm:"uniqueIndex;not null"         json:"userId"`
	CreatedAt    time.Time `json:"created"`
	UpdatedAt    time.Time `json:"updated"`

	Department *Department `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL"           json:"department,omitempty"`
	User       *Account    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"           json:"user,omitempty"`
}

type Request struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Type       string    `gorm:"size:64;not null"         json:"type"`
	Status     string    `gorm:"size:16;not null;index"   json:"status"`
	EmployeeID uint      `gorm:"index;not null"           json:"employeeId"`
	CreatedAt  time.Time `gorm:"index"                    json:"created"`
	UpdatedAt  time.Time `json:"updated"`

	Employee *Employee     `gorm:"constraint:OnDelete:CASCADE" json:"employee,omitempty"`
	Items    []RequestItem `gorm:"constraint:OnDelete:CASCADE" json:"requestItems"`
}

type RequestItem struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name      string `gorm:"size:255;not null"         json:"name"`
	Quantity  int    `gorm:"not null;check:quantity>0" json:"quantity"`
	RequestID uint   `gorm:"index;not null"            json:"requestId"`
}

type Workflow struct {
	ID         uint           `gorm:"primaryKey;autoIncrement"   json:"id"`
	Type       string         `gorm:"size:64;not null"           json:"type"`
	Details    map[string]any `gorm:"serializer:json;type:text"  json:"details"`
	Status     string         `gorm:"size:16;not null;index"     json:"status"`
	EmployeeID uint           `gorm:"index;not null"             json:"employeeId"`
	CreatedAt  time.Time      `json:"created"`
	UpdatedAt  time.Time      `json:"updated"`

	Employee *Employee `gorm:"constraint:OnDelete:CASCADE" json:"employee,omitempty"`
}

type RefreshToken struct {
	ID              uint       `gorm:"primaryKey"                   json:"id"`
	Token           string     `gorm:"size:64;uniqueIndex;not null" json:"-"`
	Expires         time.Time  `gorm:"not null"                     json:"expires"`
	CreatedAt       time.Time  `json:"created"`
	CreatedByIP     string     `gorm:"size:64"                      json:"createdByIp"`
	Revoked         *time.Time `json:"revoked,omitempty"`
	RevokedByIP     string     `gorm:"size:64"                      json:"revokedByIp,omitempty"`
	ReplacedByToken string     `gorm:"size:64"                      json:"-"`
	AccountID       uint       `gorm:"index;not null"               json:"accountId"`
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.Expires)
}

func (t *RefreshToken) IsActive(now time.Time) bool {
	return t.Revoked == nil && !t.IsExpired(now)
}

// NormalizeRequestStatus maps the accepted aliases onto stored values.
func NormalizeRequestStatus(s string) string {
	if s == StatusDenied {
		return StatusRejected
	}
	return s
}

// All lists every persisted model in migration order.
func All() []any {
	return []any{
		&Account{},
		&RefreshToken{},
		&Department{},
		&Employee{},
		&Request{},
		&RequestItem{},
		&Workflow{},
	}
}
