package models

import (
	"strconv"
	"time"
)

// Tenant is an organization users can belong to. Names are not unique.
type Tenant struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Address   string    `json:"address" db:"address"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// TableName returns the table name for the Tenant model
func (Tenant) TableName() string {
	return "tenants"
}

// NewTenant creates a new Tenant instance
func NewTenant(name, address string) *Tenant {
	now := time.Now()
	return &Tenant{
		Name:      name,
		Address:   address,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
