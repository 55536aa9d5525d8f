package connection

import "errors"

var (
	ErrNotFound      = errors.New("connection not found")
	ErrAlreadyExists = errors.New("connection already exists")
)

type Role string

const (
	RolePlayer Role = "player"
	RoleRemote Role = "remote"
)

// Conn is one attached browser.
type Conn interface {
	ID() string
	Role() Role
	// Send queues v for delivery and reports whether it was queued.
	Send(v any) bool
}
