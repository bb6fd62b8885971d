package database

import "errors"

var (
	// ErrEmptyCode is returned when a school or department code is empty.
	ErrEmptyCode = errors.New("empty school or department code")

	// ErrEmptyTicket is returned for an admission person without a ticket.
	ErrEmptyTicket = errors.New("empty admission ticket")

	// ErrInvalidListID is returned when a person is saved without a list.
	ErrInvalidListID = errors.New("invalid admission list id")

	// ErrInvalidYear is returned when the year is not a number.
	ErrInvalidYear = errors.New("invalid academic year")

	// ErrEmptyMethod is returned when the admission type name is empty.
	ErrEmptyMethod = errors.New("empty admission method")

	// ErrUnknownDriver is returned for an unsupported driver name.
	ErrUnknownDriver = errors.New("unknown database driver")
)
