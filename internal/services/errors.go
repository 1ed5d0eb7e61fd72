package services

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrValidation = errors.New("validation failed")

	ErrUserNotFound         = errors.New("user not found")
	ErrTeamNotFound         = errors.New("team not found")
	ErrNodeNotFound         = errors.New("node not found")
	ErrFileNotFound         = errors.New("file not found")
	ErrNotificationNotFound = errors.New("notification not found")

	ErrNotMember = errors.New("not a member of this team")
	ErrNotLeader = errors.New("only the team leader can do this")

	ErrDuplicateTeamName  = errors.New("team already exists")
	ErrAlreadyMember      = errors.New("user is already a member")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidTransition  = errors.New("change not allowed in the file's current state")
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrNoTeam                = errors.New("you are not part of any team")
	ErrTeamSelectionRequired = errors.New("you belong to multiple teams, select one first")

	ErrNoContent = errors.New("no downloadable content for this file")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
