package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUserNotFound    = errors.New("user not found")

	// Onboarding errors
	ErrNoEmailFound     = errors.New("no email address found in text")
	ErrEmailNotAllowed  = errors.New("email is not on the allowed list")
	ErrUserLimitReached = errors.New("user limit reached")

	// Post generation errors
	ErrPostLimitReached  = errors.New("weekly post limit reached")
	ErrAnswerEmpty       = errors.New("answer is empty")
	ErrAnswerTooShort    = errors.New("answer is too short")
	ErrAnswerRepetitive  = errors.New("answer is too repetitive")
	ErrNoContentForToday = errors.New("no daily content for today")

	// External engine errors. Timeout means the engine never called back
	// within the deadline; rejected means it answered with an explicit
	// failure or an empty payload; dispatch failed means the engine never
	// accepted the job in the first place.
	ErrExternalTimeout  = errors.New("external engine did not respond in time")
	ErrExternalRejected = errors.New("external engine rejected the request")
	ErrDispatchFailed   = errors.New("dispatch to external engine failed")

	// Transport errors
	ErrBlockedByUser = errors.New("bot was blocked by the user")
)
