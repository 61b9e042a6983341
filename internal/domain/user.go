package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Role string

const (
	RoleSubject  Role = "SUBJECT"
	RoleProvider Role = "PROVIDER"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID              uuid.UUID `bun:"id,pk,type:uuid"`
	FirstName       string    `bun:"first_name,notnull"`
	LastName        string    `bun:"last_name"`
	Email           string    `bun:"email,notnull"`
	Phone           string    `bun:"phone"`
	Qualification   string    `bun:"qualification"`
	PricePerSession float64   `bun:"price_per_session"`
	Role            Role      `bun:"role,notnull"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
	UpdatedAt       time.Time `bun:"updated_at,notnull"`
}

func (u *User) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if u.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			u.ID = id
		}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = now
		}
		if u.UpdatedAt.IsZero() {
			u.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		u.UpdatedAt = now
	}
	return nil
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func ParseRole(s string) (Role, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(RoleSubject):
		return RoleSubject, true
	case string(RoleProvider):
		return RoleProvider, true
	default:
		return "", false
	}
}
