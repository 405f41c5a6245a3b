// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/ssolson/upOpt/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	if format != constants.OutputFormatText && format != constants.OutputFormatJSON {
		return fmt.Errorf("expected output format of %s or %s, got %s",
			constants.OutputFormatText, constants.OutputFormatJSON, format)
	}
	return nil
}
