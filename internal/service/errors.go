package service

import "errors"

var (
	ErrNotFound     = errors.New("room not found")
	ErrInvalidInput = errors.New("invalid input")
)
