package user

import (
	"database/sql"
	"time"
)

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

type User struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Email       string         `db:"email" json:"email"`
	Role        string         `db:"role" json:"role"`
	DeviceToken sql.NullString `db:"device_token" json:"-"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
}

type DeviceTokenRequest struct {
	Token string `json:"token" binding:"required,min=10"`
}
