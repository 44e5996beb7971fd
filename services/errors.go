package services

import "errors"

var (
	ErrTournamentAlreadyStarted = errors.New("a bracket for this tournament and format already exists")
	ErrBracketNotFound          = errors.New("bracket not found")
)
