// Package command implements the write side of the user service: the
// commands accepted, and the handler that validates them against
// domain specifications, persists the resulting events, and publishes
// them to subscribers.
package command

import "github.com/plaenen/usercqrs/pkg/idgen"

// RegisterUser requests that a new user be created with the given id
// and name.
type RegisterUser struct {
	UserID uint32
	Name   string

	commandID     string
	correlationID string
}

// NewRegisterUser constructs a RegisterUser command. If correlationID
// is empty, one is generated, making this command the root of its own
// causation chain.
func NewRegisterUser(userID uint32, name, correlationID string) RegisterUser {
	if correlationID == "" {
		correlationID = idgen.MustGenerateSortableID()
	}
	return RegisterUser{
		UserID:        userID,
		Name:          name,
		commandID:     idgen.MustGenerateSortableID(),
		correlationID: correlationID,
	}
}

func (c RegisterUser) CommandName() string    { return "RegisterUser" }
func (c RegisterUser) CommandID() string      { return c.commandID }
func (c RegisterUser) CorrelationID() string  { return c.correlationID }

// RenameUser requests that an existing user be renamed.
type RenameUser struct {
	UserID  uint32
	NewName string

	commandID     string
	correlationID string
}

// NewRenameUser constructs a RenameUser command.
func NewRenameUser(userID uint32, newName, correlationID string) RenameUser {
	if correlationID == "" {
		correlationID = idgen.MustGenerateSortableID()
	}
	return RenameUser{
		UserID:        userID,
		NewName:       newName,
		commandID:     idgen.MustGenerateSortableID(),
		correlationID: correlationID,
	}
}

func (c RenameUser) CommandName() string   { return "RenameUser" }
func (c RenameUser) CommandID() string     { return c.commandID }
func (c RenameUser) CorrelationID() string { return c.correlationID }
