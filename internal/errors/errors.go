// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

type ErrLeadNotFound struct {
	LeadID int
}

func (e *ErrLeadNotFound) Error() string {
	return fmt.Sprintf("lead with ID %d not found", e.LeadID)
}

func NewLeadNotFound(id int) error {
	return &ErrLeadNotFound{LeadID: id}
}

type ErrTemplateNotFound struct {
	TemplateID int
}

func (e *ErrTemplateNotFound) Error() string {
	return fmt.Sprintf("template with ID %d not found", e.TemplateID)
}

func NewTemplateNotFound(id int) error {
	return &ErrTemplateNotFound{TemplateID: id}
}

type ErrEmailLogNotFound struct {
	LogID int
}

func (e *ErrEmailLogNotFound) Error() string {
	return fmt.Sprintf("email log with ID %d not found", e.LogID)
}

func NewEmailLogNotFound(id int) error {
	return &ErrEmailLogNotFound{LogID: id}
}

// ValidationError rejects malformed create/update input synchronously.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrIllegalTransition rejects a status edge outside the transition table.
type ErrIllegalTransition struct {
	Entity string
	From   string
	To     string
}

func (e *ErrIllegalTransition) Error() string {
	return fmt.Sprintf("%s cannot transition from %s to %s", e.Entity, e.From, e.To)
}

func NewIllegalTransition(entity, from, to string) error {
	return &ErrIllegalTransition{Entity: entity, From: from, To: to}
}

// PermanentSendError marks a dispatch failure that must not be retried
// (invalid address, explicit provider rejection).
type PermanentSendError struct {
	Reason string
}

func (e *PermanentSendError) Error() string {
	return fmt.Sprintf("permanent send failure: %s", e.Reason)
}

func NewPermanentSend(reason string) error {
	return &PermanentSendError{Reason: reason}
}

// IsPermanentSend reports whether err (or anything it wraps) is a
// PermanentSendError.
func IsPermanentSend(err error) bool {
	var pe *PermanentSendError
	return errors.As(err, &pe)
}
