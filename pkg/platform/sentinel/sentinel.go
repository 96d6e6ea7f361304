package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: document or embedded entry does not exist
// - ErrConflict: unique constraint violated (duplicate account email)
// - ErrExpired: ticket past its expiry
// - ErrNoChange: an update or pull matched nothing (stale or partial state)
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrExpired  = errors.New("expired")
	ErrNoChange = errors.New("no change")
)
