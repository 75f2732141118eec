// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package tools

import (
	"errors"
	"fmt"

	apperrors "jarvis/internal/errors"
)

// Common tool errors
var (
	// ErrToolNotFound indicates the requested tool doesn't exist in the registry.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidArguments indicates tool arguments are invalid or malformed.
	ErrInvalidArguments = errors.New("invalid arguments")
)

// invalidArguments reads as "invalid arguments: <reason>" and matches both
// ErrInvalidArguments and the malformed-instruction code.
func invalidArguments(err error) *apperrors.Error {
	return &apperrors.Error{Code: apperrors.CodeMalformed, Err: fmt.Errorf("%w: %v", ErrInvalidArguments, err)}
}

func malformed(format string, args ...any) *apperrors.Error {
	return invalidArguments(fmt.Errorf(format, args...))
}
