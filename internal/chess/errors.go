package chess

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSyntax = errors.New("invalid SAN syntax")
	ErrNoLegalMove   = errors.New("no legal move matches SAN")
	ErrAmbiguousMove = errors.New("ambiguous SAN move")
)

// ErrorKind classifies why a SAN token could not be applied.
type ErrorKind int

const (
	InvalidSyntax ErrorKind = iota + 1
	NoLegalMove
	AmbiguousMove
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidSyntax:
		return "invalid_syntax"
	case NoLegalMove:
		return "no_legal_move"
	case AmbiguousMove:
		return "ambiguous_move"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case InvalidSyntax:
		return ErrInvalidSyntax
	case NoLegalMove:
		return ErrNoLegalMove
	case AmbiguousMove:
		return ErrAmbiguousMove
	default:
		return nil
	}
}

// MoveError is returned by Board.Apply. The board is left untouched.
type MoveError struct {
	Kind  ErrorKind
	Token string
	Ply   int // ply the token would have produced
	// Candidates holds the UCI moves that matched an ambiguous token.
	Candidates []string
}

func newMoveError(kind ErrorKind, token string, ply int) *MoveError {
	return &MoveError{Kind: kind, Token: token, Ply: ply}
}

func (e *MoveError) Error() string {
	msg := fmt.Sprintf("ply %d move %q: %v", e.Ply, e.Token, e.Kind.sentinel())
	if len(e.Candidates) > 0 {
		msg += fmt.Sprintf(" (candidates %v)", e.Candidates)
	}
	return msg
}

func (e *MoveError) Unwrap() error { return e.Kind.sentinel() }

// KindOf reports the ErrorKind carried by err, or 0 when err is not a MoveError.
func KindOf(err error) ErrorKind {
	var me *MoveError
	if errors.As(err, &me) {
		return me.Kind
	}
	return 0
}
