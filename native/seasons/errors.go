package seasons

import "errors"

var (
	ErrUnauthorized            = errors.New("seasons: caller is not the owner")
	ErrSeasonNotFound          = errors.New("seasons: season not found")
	ErrSubmissionNotFound      = errors.New("seasons: submission not found")
	ErrSeasonAlreadyClosed     = errors.New("seasons: season already closed")
	ErrSeasonStillRunning      = errors.New("seasons: season still running")
	ErrSubmissionWindowElapsed = errors.New("seasons: submission window elapsed")
	ErrIncorrectTimes          = errors.New("seasons: incorrect times given")
	ErrIncorrectAmount         = errors.New("seasons: incorrect amount")
	ErrOnlyArtist              = errors.New("seasons: caller is not the artist")
	ErrNoTokensToMint          = errors.New("seasons: no tokens to mint")
	ErrBlacklisted             = errors.New("seasons: submission blacklisted in season")
	ErrAlreadyBlacklisted      = errors.New("seasons: submission already blacklisted")
	ErrNotPartOfSeason         = errors.New("seasons: submission not part of season")
	ErrShutdown                = errors.New("seasons: contract has been shut down")
	ErrInvalidInput            = errors.New("seasons: invalid input")
	ErrInvalidPercentage       = errors.New("seasons: percentage exceeds 100")
	ErrInsufficientFunds       = errors.New("seasons: insufficient balance")
	ErrAmountOverflow          = errors.New("seasons: amount overflow")
	ErrReentrantCall           = errors.New("seasons: reentrant call")

	errNilState = errors.New("seasons engine: state not configured")
)
