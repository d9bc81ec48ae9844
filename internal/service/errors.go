package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	InternalServerError = 500
)

var (
	ErrParamInvalid      = errors.New("Invalid request parameters")
	ErrUnauthorized      = errors.New("Unauthorized - you must be logged in")
	ErrUserNotFound      = errors.New("User not found")
	ErrSelfFollow        = errors.New("You cannot follow yourself")
	ErrImageNotSupported = errors.New("Only image files are allowed")
	UnExpectedError      = errors.New("Internal server error")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:      BadRequest,
	ErrUnauthorized:      Unauthorized,
	ErrUserNotFound:      NotFound,
	ErrSelfFollow:        BadRequest,
	ErrImageNotSupported: BadRequest,
	UnExpectedError:      InternalServerError,
}
