package service

import "errors"

// Rechazos que cruzan al boundary de presentación como valores, nunca
// como strings armados acá (el core no formatea texto de usuario).
var (
	// validación — siempre corregible por el usuario
	ErrInvalidName       = errors.New("invalid name")
	ErrOutOfRange        = errors.New("value out of range")
	ErrDuplicateRole     = errors.New("duplicate role name")
	ErrTooManyRoles      = errors.New("too many roles")
	ErrRequirementNotSet = errors.New("role requirement not decided yet")

	// conflicto de estado — reintentá otra cosa
	ErrNotFound          = errors.New("queue not found")
	ErrNotMember         = errors.New("not a member of the queue")
	ErrAlreadyInQueue    = errors.New("already in a queue")
	ErrFull              = errors.New("queue is full")
	ErrRoleFull          = errors.New("role is full")
	ErrNoRoleCapacity    = errors.New("no role has free slots")
	ErrOwnerCannotLeave  = errors.New("owner cannot leave their own queue")
	ErrQueueLimitReached = errors.New("guild queue limit reached")
	ErrSearchActive      = errors.New("search already active")
)
