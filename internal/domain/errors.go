package domain

import (
	"errors"
	"fmt"
)

// Capture.
var (
	ErrDeviceUnavailable = errors.New("device unavailable")
	ErrUserCancelled     = errors.New("user cancelled")
)

// Peer session.
var (
	ErrRegistrationFailed = errors.New("registration failed")
	ErrNotRegistered      = fmt.Errorf("%w: not registered", ErrRegistrationFailed)
	ErrPeerUnreachable    = errors.New("peer unreachable")
	ErrNoActiveCall       = errors.New("no active call")
	ErrCallAlreadyActive  = errors.New("call already active")
)

// Recording.
var (
	ErrNoActiveStream   = errors.New("no active stream")
	ErrNotRecording     = errors.New("not recording")
	ErrAlreadyRecording = errors.New("already recording")
)

// Comments and groups.
var (
	ErrEmptyComment      = errors.New("comment is empty")
	ErrInvalidCharacters = errors.New("comment can only contain letters, digits and spaces")
	ErrUnknownCity       = errors.New("unknown city")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrCommentNotFound   = errors.New("comment not found")
	ErrInvalidGroup      = errors.New("invalid group")
)
