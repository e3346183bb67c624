// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import "errors"

var (
	// ErrCollaboratorUnavailable indicates a collaborator could not be
	// reached or did not respond in time.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

	// ErrMalformedOutput indicates a collaborator responded but its
	// output could not be parsed into the expected shape.
	ErrMalformedOutput = errors.New("malformed collaborator output")

	// ErrInvalidTransition indicates an attempted stage transition that
	// the transition graph does not allow.
	ErrInvalidTransition = errors.New("invalid stage transition")

	// ErrNoTopic indicates a run was started without a topic and with
	// discovery disabled.
	ErrNoTopic = errors.New("no topic provided and discovery disabled")

	// ErrMissingCollaborator indicates the executor was constructed
	// without a collaborator a stage requires.
	ErrMissingCollaborator = errors.New("missing collaborator")
)

// IsUnavailable reports whether err marks a collaborator outage.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrCollaboratorUnavailable)
}

// IsMalformed reports whether err marks unparseable collaborator output.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedOutput)
}
