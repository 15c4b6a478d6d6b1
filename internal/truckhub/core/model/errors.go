package model

import "errors"

var (
	ErrTruckNotFound     = errors.New("truck not found")
	ErrTruckExists       = errors.New("truck already exists")
	ErrNotOwner          = errors.New("truck is not owned by this owner")
	ErrInvalidMode       = errors.New("invalid broadcast mode")
	ErrExclusivity       = errors.New("owner already has a live truck")
	ErrTruckOffline      = errors.New("truck is not broadcasting")
	ErrUserNotFound      = errors.New("user not found")
	ErrUserExists        = errors.New("user already exists")
	ErrNotDriver         = errors.New("user is not an active driver")
	ErrRequestNotFound   = errors.New("request not found")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrAlreadyReviewed   = errors.New("user already reviewed this truck")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrInvalidArgument   = errors.New("invalid argument")
)
