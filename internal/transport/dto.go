// Package transport holds the JSON bodies of the HTTP API.
package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Skotchmaster/hr_portal/internal/models"
	"github.com/Skotchmaster/hr_portal/internal/service"
)

type AuthenticateRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Title           string `json:"title"`
	FirstName       string `json:"firstName"       validate:"required"`
	LastName        string `json:"lastName"        validate:"required"`
	Email           string `json:"email"           validate:"required,email"`
	Password        string `json:"password"        validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	AcceptTerms     bool   `json:"acceptTerms"     validate:"required"`
}

func (r RegisterRequest) Params() service.RegisterParams {
	return service.RegisterParams{
		Title:       r.Title,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		Password:    r.Password,
		AcceptTerms: r.AcceptTerms,
	}
}

// TokenRequest carries a refresh, verification or reset token. Refresh and
// revoke fall back to the refreshToken cookie when it is empty.
type TokenRequest struct {
	Token string `json:"token"`
}

type RequiredTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token"           validate:"required"`
	Password        string `json:"password"        validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type AuthResponse struct {
	*models.Account
	JWTToken string `json:"jwtToken"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type CreateAccountRequest struct {
	Title           string `json:"title"`
	FirstName       string `json:"firstName"       validate:"required"`
	LastName        string `json:"lastName"        validate:"required"`
	Email           string `json:"email"           validate:"required,email"`
	Password        string `json:"password"        validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Role            string `json:"role"            validate:"required,oneof=Admin User"`
	Status          string `json:"status"          validate:"omitempty,oneof=Active Inactive"`
}

func (r CreateAccountRequest) Input() service.AccountInput {
	return service.AccountInput{
		Title:     r.Title,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Password:  r.Password,
		Role:      r.Role,
		Status:    r.Status,
	}
}

type UpdateAccountRequest struct {
	Title           *string `json:"title"`
	FirstName       *string `json:"firstName"       validate:"omitempty,min=1"`
	LastName        *string `json:"lastName"        validate:"omitempty,min=1"`
	Email           *string `json:"email"           validate:"omitempty,email"`
	Password        *string `json:"password"        validate:"omitempty,min=6"`
	ConfirmPassword *string `json:"confirmPassword" validate:"required_with=Password"`
	Role            *string `json:"role"            validate:"omitempty,oneof=Admin User"`
	Status          *string `json:"status"          validate:"omitempty,oneof=Active Inactive"`
}

// PasswordsMatch reports whether a password change is confirmed.
func (r UpdateAccountRequest) PasswordsMatch() bool {
	if r.Password == nil {
		return true
	}
	return r.ConfirmPassword != nil && *r.ConfirmPassword == *r.Password
}

func (r UpdateAccountRequest) Patch() service.AccountPatch {
	return service.AccountPatch{
		Title:     r.Title,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Password:  r.Password,
		Role:      r.Role,
		Status:    r.Status,
	}
}

type DepartmentRequest struct {
	Name        string `json:"name"        validate:"required,max=128"`
	Description string `json:"description" validate:"max=1024"`
}

type UpdateDepartmentRequest struct {
	Name        *string `json:"name"        validate:"omitempty,min=1,max=128"`
	Description *string `json:"description" validate:"omitempty,max=1024"`
}

type EmployeeRequest struct {
	EmployeeID   string     `json:"employeeId"   validate:"required,max=64"`
	Position     string     `json:"position"     validate:"required,max=128"`
	DepartmentID *uint      `json:"departmentId"`
	HireDate     *time.Time `json:"hireDate"`
	Status       string     `json:"status"       validate:"omitempty,oneof=Active Inactive"`
	UserID       uint       `json:"userId"       validate:"required"`
}

func (r EmployeeRequest) Input() service.EmployeeInput {
	in := service.EmployeeInput{
		EmployeeID:   r.EmployeeID,
		Position:     r.Position,
		DepartmentID: r.DepartmentID,
		Status:       r.Status,
		UserID:       r.UserID,
	}
	if r.HireDate != nil {
		in.HireDate = *r.HireDate
	}
	return in
}

type UpdateEmployeeRequest struct {
	EmployeeID   *string    `json:"employeeId"   validate:"omitempty,min=1,max=64"`
	Position     *string    `json:"position"     validate:"omitempty,min=1,max=128"`
	DepartmentID *uint      `json:"departmentId"`
	HireDate     *time.Time `json:"hireDate"`
	Status       *string    `json:"status"       validate:"omitempty,oneof=Active Inactive"`
	UserID       *uint      `json:"userId"`
}

func (r UpdateEmployeeRequest) Patch() service.EmployeePatch {
	return service.EmployeePatch{
		EmployeeID:   r.EmployeeID,
		Position:     r.Position,
		DepartmentID: r.DepartmentID,
		HireDate:     r.HireDate,
		Status:       r.Status,
		UserID:       r.UserID,
	}
}

type TransferRequest struct {
	DepartmentID uint `json:"departmentId" validate:"required"`
}

// ItemRef is an item id that clients send either as a number or as a string,
// for example a temporary "tmp-3" for rows not saved yet.
type ItemRef string

func (r *ItemRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*r = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = ItemRef(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("item id must be a number or a string: %w", err)
		}
		if _, err := strconv.ParseUint(n.String(), 10, 64); err != nil {
			return fmt.Errorf("item id must be a non-negative integer")
		}
		*r = ItemRef(n.String())
	}
	return nil
}

type RequestItemDTO struct {
	ID       ItemRef `json:"id"`
	Name     string  `json:"name"     validate:"required,max=255"`
	Quantity int     `json:"quantity" validate:"gte=0"`
}

func itemInputs(items []RequestItemDTO) []service.ItemInput {
	out := make([]service.ItemInput, 0, len(items))
	for _, it := range items {
		out = append(out, service.ItemInput{ID: string(it.ID), Name: it.Name, Quantity: it.Quantity})
	}
	return out
}

type CreateRequestRequest struct {
	Type         string           `json:"type"         validate:"required,max=64"`
	Status       string           `json:"status"       validate:"omitempty,oneof=Pending Approved Rejected Denied"`
	EmployeeID   uint             `json:"employeeId"`
	RequestItems []RequestItemDTO `json:"requestItems" validate:"dive"`
}

func (r CreateRequestRequest) Input() service.RequestInput {
	return service.RequestInput{
		Type:       r.Type,
		Status:     r.Status,
		EmployeeID: r.EmployeeID,
		Items:      itemInputs(r.RequestItems),
	}
}

// UpdateRequestRequest replaces the item list only when requestItems is
// present in the body.
type UpdateRequestRequest struct {
	Type         *string           `json:"type"         validate:"omitempty,min=1,max=64"`
	Status       *string           `json:"status"       validate:"omitempty,oneof=Pending Approved Rejected Denied"`
	EmployeeID   *uint             `json:"employeeId"`
	RequestItems *[]RequestItemDTO `json:"requestItems" validate:"omitempty,dive"`
}

func (r UpdateRequestRequest) Patch() service.RequestPatch {
	p := service.RequestPatch{
		Type:       r.Type,
		Status:     r.Status,
		EmployeeID: r.EmployeeID,
	}
	if r.RequestItems != nil {
		items := itemInputs(*r.RequestItems)
		p.Items = &items
	}
	return p
}

type DedupeRequest struct {
	WindowSeconds int `json:"windowSeconds" validate:"gte=0"`
}

type RepairRequest struct {
	EmployeeID *uint `json:"employeeId"`
}

type WorkflowRequest struct {
	Type       string         `json:"type"       validate:"required,max=64"`
	Details    map[string]any `json:"details"`
	Status     string         `json:"status"     validate:"omitempty,oneof=Pending Approved Rejected Denied"`
	EmployeeID uint           `json:"employeeId" validate:"required"`
}

func (r WorkflowRequest) Input() service.WorkflowInput {
	return service.WorkflowInput{
		Type:       r.Type,
		Details:    r.Details,
		Status:     r.Status,
		EmployeeID: r.EmployeeID,
	}
}

type WorkflowStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Pending Approved Rejected Denied"`
}

type DeletedResponse struct {
	Message string `json:"message"`
	Count   int64  `json:"count"`
}
