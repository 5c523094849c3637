package services

import "errors"

// Shared errors used across services and the HTTP error mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed      = errors.New("validation failed")
	ErrHandleRequired        = errors.New("handle is required")
	ErrHandleLength          = errors.New("handle must be between 3 and 24 characters")
	ErrPasswordTooShort      = errors.New("password must be at least 8 characters")
	ErrScoreDateRequired     = errors.New("puzzle date is required")
	ErrScoreDateInFuture     = errors.New("puzzle date cannot be in the future")
	ErrScoreOutcomeRequired  = errors.New("either share text or an explicit status is required")
	ErrScoreInvalidGuesses   = errors.New("solved status requires guesses_used between 1 and 6")
	ErrScoreGuessesForbidden = errors.New("dnf status forbids guesses_used")
	ErrDateRangeInvalid      = errors.New("start date must not be after end date")

	ErrTournamentNameLength        = errors.New("tournament name must be between 3 and 100 characters")
	ErrTournamentStartRequired     = errors.New("tournament start date is required")
	ErrTournamentInvalidDuration   = errors.New("tournament duration must be 9 or 18 days")
	ErrTournamentInvalidVisibility = errors.New("tournament type must be public or private")
	ErrTournamentAlreadyEnded      = errors.New("tournament is already ended")
	ErrTournamentStillActive       = errors.New("tournament is still active")
	ErrJoinCodeAmbiguous           = errors.New("join code matches multiple tournaments, use the full tournament id")

	// Conflicts
	ErrHandleTaken = errors.New("handle is already in use")

	// Authentication and authorization
	ErrInvalidCredentials = errors.New("invalid handle or password")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")
	ErrNotParticipant     = errors.New("user is not a participant in this tournament")

	// Entity-specific lookups
	ErrUserNotFound       = errors.New("user not found")
	ErrScoreNotFound      = errors.New("score not found")
	ErrTournamentNotFound = errors.New("tournament not found")

	// Uploads
	ErrAvatarInvalidType = errors.New("avatar must be a png, jpeg or webp image")
)
