// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"errors"

	apperrors "nlsql/cli/internal/errors"
)

// PresentError renders a command failure on one masked line, prefixed with
// the command name. Typed errors show their message and the innermost cause
// without the kind tag.
func PresentError(command string, err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if apperrors.KindOf(err) != "" {
		msg = apperrors.MessageOf(err)
		var e *apperrors.E
		if errors.As(err, &e) && e.Err != nil {
			msg += ": " + e.Err.Error()
		}
	}
	if command == "" {
		return Mask(msg)
	}
	return command + ": " + Mask(msg)
}
