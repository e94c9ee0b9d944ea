package session

import (
	"github.com/folioadmin/folio-admin/internal/domain"
	"github.com/folioadmin/folio-admin/internal/errors"
)

// Level of a notice.
type Level string

// Notice levels.
const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is the user-visible message produced by a session action.
type Notice struct {
	Level   Level       `json:"level"`
	Code    errors.Code `json:"code,omitempty"`
	Message string      `json:"message"`
}

// Created is the notice for a successful create.
func Created(s *domain.Schema) Notice {
	return Notice{Level: LevelSuccess, Message: s.Singular + " created successfully!"}
}

// Updated is the notice for a successful update.
func Updated(s *domain.Schema) Notice {
	return Notice{Level: LevelSuccess, Message: s.Singular + " updated successfully!"}
}

// Deleted is the notice for a successful delete.
func Deleted(s *domain.Schema) Notice {
	return Notice{Level: LevelSuccess, Message: s.Singular + " deleted successfully!"}
}

// ErrorNotice converts an error into a notice. Coded errors show their
// message; upload failures always show the fixed upload message.
func ErrorNotice(err error) Notice {
	n := Notice{Level: LevelError, Code: errors.CodeOf(err), Message: err.Error()}
	var e *errors.Error
	if errors.As(err, &e) {
		n.Message = e.Message
		if e.Code == errors.CodeMutation && e.Unwrap() != nil {
			n.Message = e.Unwrap().Error()
		}
	}
	return n
}
