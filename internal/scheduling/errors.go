package scheduling

import "errors"

var (
	// ErrParse: the command text has no usable scheduling signal (no type,
	// time, date or weekday), or names an impossible date.
	ErrParse = errors.New("não foi possível interpretar o comando")
	// ErrValidation: structurally invalid intent or candidate (e.g. a
	// recurring intent with zero weekdays, or an availability-sourced
	// candidate missing its score).
	ErrValidation = errors.New("dados de agendamento inválidos")
	// ErrNotFound: the referenced suggestion does not exist.
	ErrNotFound = errors.New("sugestão não encontrada")
	// ErrInvalidState: lifecycle transition attempted from a non-pending state.
	ErrInvalidState = errors.New("sugestão não está pendente")
)
