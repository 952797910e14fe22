// Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Users can quote the code when asking for help.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Source not found: The report file does not exist
//	          Action: Check the path and try again
//	          Match: ErrSourceNotFound, os.ErrNotExist
//
//	FILE002 - Source not readable: The report file could not be opened
//	          Action: Check file permissions or close programs locking the file
//	          Match: os.ErrPermission, "read source"
//
//	FILE003 - File too large: The upload exceeds the size limit
//	          Action: Export a smaller date range from SAP
//	          Match: "file too large", "request body too large"
//
//	FILE004 - No file: No file was provided
//	          Action: Please select a report file
//	          Match: "no file provided"
//
//	FILE005 - Empty file: The report contains no rows
//	          Action: Export the report again from SAP
//	          Match: report.ErrEmptyInput
//
//	FILE006 - Unsupported encoding: The requested character set is unknown
//	          Action: Use auto, utf-8, windows-1252, iso-8859-1, utf-16le or utf-16be
//	          Match: "unsupported encoding"
//
//	FILE007 - Not a text report: The upload is a spreadsheet, archive or PDF
//	          Action: Export the report from SAP as unconverted text
//	          Match: "unsupported upload type"
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Export failed: The cleaned file could not be written
//	         Action: Check that the target folder exists and is writable
//	         Match: ErrExportFailed, "export"
//
//	EXP002 - Unknown format: The requested output format is not supported
//	         Action: Choose xlsx or csv
//	         Match: "unknown export format"
//
// # Configuration Errors (CFG001-CFG099)
//
//	CFG001 - Invalid profile: The report profile could not be used
//	         Action: Fix the profile file named in the message
//	         Match: config.ErrInvalidProfile
//
// # Run Errors (UPL001-UPL099)
//
//	UPL001 - Cancelled: No file or destination was chosen
//	         Action: Start again when ready
//	         Match: ErrCancelled
//
//	UPL002 - System busy: Too many reports are being cleaned
//	         Action: Please wait a moment and try again
//	         Match: ErrTooManyRuns
//
//	UPL004 - Request cancelled: The request was cancelled
//	         Action: Please try again
//	         Match: context.Canceled
//
//	UPL005 - Request timeout: The request timed out
//	         Action: Try a smaller file or check your connection
//	         Match: context.DeadlineExceeded
//
// # Default (ERR000)
//
//	ERR000 - An unexpected error occurred
//	         Action: Please try again or contact support

package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/JonMunkholm/sapclean/internal/config"
	"github.com/JonMunkholm/sapclean/internal/report"
)

// UserMessage represents a user-friendly error with guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// errorSentinel maps a wrapped sentinel error to a message.
type errorSentinel struct {
	target error
	msg    UserMessage
}

// errorPattern maps a substring of the error text to a message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgNotFound = UserMessage{
		Message: "The report file does not exist",
		Action:  "Check the path and try again",
		Code:    "FILE001",
	}
	msgNotReadable = UserMessage{
		Message: "The report file could not be opened",
		Action:  "Check file permissions or close programs locking the file",
		Code:    "FILE002",
	}
	msgExportFailed = UserMessage{
		Message: "The cleaned file could not be written",
		Action:  "Check that the target folder exists and is writable",
		Code:    "EXP001",
	}
	msgCancelled = UserMessage{
		Message: "No file or destination was chosen",
		Action:  "Start again when ready",
		Code:    "UPL001",
	}
)

// errorSentinels are checked with errors.Is before any pattern.
// Order matters: the first match wins.
var errorSentinels = []errorSentinel{
	{target: ErrExportFailed, msg: msgExportFailed},
	{target: config.ErrInvalidProfile, msg: UserMessage{
		Message: "The report profile could not be used",
		Action:  "Fix the profile file named in the message",
		Code:    "CFG001",
	}},
	{target: ErrSourceNotFound, msg: msgNotFound},
	{target: os.ErrNotExist, msg: msgNotFound},
	{target: os.ErrPermission, msg: msgNotReadable},
	{target: report.ErrEmptyInput, msg: UserMessage{
		Message: "The report contains no rows",
		Action:  "Export the report again from SAP",
		Code:    "FILE005",
	}},
	{target: ErrCancelled, msg: msgCancelled},
	{target: ErrTooManyRuns, msg: UserMessage{
		Message: "Too many reports are being cleaned",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}},
	{target: context.Canceled, msg: UserMessage{
		Message: "The request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}},
	{target: context.DeadlineExceeded, msg: UserMessage{
		Message: "The request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "UPL005",
	}},
}

// errorPatterns catch errors that carry no sentinel.
// Order matters: more specific patterns come first.
var errorPatterns = []errorPattern{
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "The upload exceeds the size limit",
			Action:  "Export a smaller date range from SAP",
			Code:    "FILE003",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "The upload exceeds the size limit",
			Action:  "Export a smaller date range from SAP",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was provided",
			Action:  "Please select a report file",
			Code:    "FILE004",
		},
	},
	{
		pattern: "unsupported encoding",
		msg: UserMessage{
			Message: "The requested character set is unknown",
			Action:  "Use auto, utf-8, windows-1252, iso-8859-1, utf-16le or utf-16be",
			Code:    "FILE006",
		},
	},
	{
		pattern: "unsupported upload type",
		msg: UserMessage{
			Message: "The upload is not a text report",
			Action:  "Export the report from SAP as unconverted text",
			Code:    "FILE007",
		},
	},
	{
		pattern: "read source",
		msg:     msgNotReadable,
	},
	{
		pattern: "unknown export format",
		msg: UserMessage{
			Message: "The requested output format is not supported",
			Action:  "Choose xlsx or csv",
			Code:    "EXP002",
		},
	},
	{
		pattern: "export",
		msg:     msgExportFailed,
	},
}

// defaultMessage is returned when no sentinel or pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Sentinels are matched with errors.Is, then the lower-cased error text is
// searched for known patterns. Returns ERR000 when nothing matches and an
// empty message for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, es := range errorSentinels {
		if errors.Is(err, es.target) {
			return es.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// IsUserFacing reports whether err maps to a specific message rather than
// the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
// The original error is preserved for logging.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// Detail renders the message, code and action on one line.
func (e *UserError) Detail() string {
	return fmt.Sprintf("%s (Code: %s). %s", e.User.Message, e.User.Code, e.User.Action)
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
