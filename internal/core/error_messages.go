// # Error Codes Reference
//
// User-facing errors carry a code that can be quoted to support.
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Required field is empty              Patterns: "is required"
//	VAL002 - Value not in the allowed list        Patterns: "must be one of"
//	VAL003 - Invalid email address                Patterns: "must be a valid email"
//	VAL004 - Invalid phone or WhatsApp number     Patterns: "must be in format +971"
//	VAL005 - Invalid URL                          Patterns: "must be a valid url"
//	VAL006 - Invalid number or coordinate         Patterns: "must be a number", "must be between"
//	VAL007 - Invalid true/false value             Patterns: "must be true or false"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large                      Patterns: "file exceeds size limit", "request body too large"
//	FILE002 - Header row not recognized           Patterns: "no recognized column labels"
//	FILE003 - Line too long                       Patterns: "line exceeds maximum length"
//	FILE004 - No file selected                    Patterns: "no file provided"
//	FILE005 - Empty file                          Patterns: "file is empty"
//
// # Submission Errors (SUB001-SUB099)
//
//	SUB001 - Business already exists              Patterns: "business api returned 409"
//	SUB002 - Business API rejected credentials    Patterns: "business api returned 401", "business api returned 403"
//	SUB003 - Row was not submitted                Patterns: "not submitted"
//	SUB004 - Business API unavailable             Patterns: "business api returned 5", "connection refused"
//	SUB005 - Business API rejected the record     Patterns: "business api returned 4"
//
// # Batch Errors (UPL001-UPL099)
//
//	UPL001 - Batch cancelled                      Patterns: "parse cancelled", "batch cancelled"
//	UPL002 - System busy                          Patterns: "too many concurrent batches"
//	UPL003 - Batch not found                      Patterns: "batch not found"
//	UPL004 - Request cancelled                    Patterns: "context canceled"
//	UPL005 - Request timed out                    Patterns: "context deadline exceeded"
//
// # Session Errors (AUTH001-AUTH099)
//
//	AUTH001 - Wrong email or password             Patterns: "invalid credentials"
//	AUTH002 - Not signed in                       Patterns: "no active session"
//	AUTH003 - Admin access required               Patterns: "admin role required"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests                   Patterns: "rate limit"
//
// # Default (ERR000)
//
// Fallback when nothing matches; check the logs for the technical error.
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgRequired    = UserMessage{"A required field is empty", "Fill in every column marked with *", "VAL001"}
	msgEnum        = UserMessage{"A value is not in the allowed list", "Use a category and city exactly as listed in the template", "VAL002"}
	msgEmail       = UserMessage{"An email address is invalid", "Use the form name@example.com", "VAL003"}
	msgPhone       = UserMessage{"A phone number is invalid", "Use +971-X-XXX-XXXX for phones and +971-XX-XXX-XXXX for WhatsApp", "VAL004"}
	msgURL         = UserMessage{"A URL is invalid", "Use full addresses starting with https://", "VAL005"}
	msgNumber      = UserMessage{"A number or coordinate is invalid", "Latitude must be -90 to 90 and longitude -180 to 180", "VAL006"}
	msgBool        = UserMessage{"A true/false value is invalid", "Enter true or false", "VAL007"}
	msgFileSize    = UserMessage{"File exceeds the maximum size", "Split the file into smaller batches", "FILE001"}
	msgHeader      = UserMessage{"The header row was not recognized", "Download the template and keep its header row unchanged", "FILE002"}
	msgLineLong    = UserMessage{"A line in the file is too long", "Check the file is tab-separated with one listing per line", "FILE003"}
	msgNoFile      = UserMessage{"No file was selected", "Choose a tab-separated listings file to upload", "FILE004"}
	msgEmptyFile   = UserMessage{"The uploaded file is empty", "Upload a file with a header row and listing rows", "FILE005"}
	msgDuplicate   = UserMessage{"This business already exists", "Remove rows that were uploaded before", "SUB001"}
	msgAPIAuth     = UserMessage{"The business API rejected our credentials", "Contact an administrator to update the API token", "SUB002"}
	msgNotSent     = UserMessage{"The row was not submitted", "Upload the remaining rows again", "SUB003"}
	msgAPIDown     = UserMessage{"The business API is unavailable", "Please try again in a few moments", "SUB004"}
	msgAPIRejected = UserMessage{"The business API rejected the record", "Review the row and try again", "SUB005"}
	msgCancelled   = UserMessage{"The batch was cancelled", "Start a new upload when ready", "UPL001"}
	msgBusy        = UserMessage{"Too many uploads in progress", "Please wait a moment and try again", "UPL002"}
	msgNoBatch     = UserMessage{"Batch not found", "The batch may have expired. Please start a new upload", "UPL003"}
	msgReqCancel   = UserMessage{"The request was cancelled", "Please try again", "UPL004"}
	msgTimeout     = UserMessage{"The request timed out", "Try a smaller file or check your connection", "UPL005"}
	msgBadLogin    = UserMessage{"Wrong email or password", "Check your credentials and try again", "AUTH001"}
	msgNoSession   = UserMessage{"You are not signed in", "Sign in and try again", "AUTH002"}
	msgNotAdmin    = UserMessage{"Admin access is required", "Sign in with an admin account", "AUTH003"}
	msgRate        = UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}
)

var errorPatterns = []errorPattern{
	// Row validation
	{"is required", msgRequired},
	{"must be one of", msgEnum},
	{"must be a valid email", msgEmail},
	{"must be in format +971", msgPhone},
	{"must be a valid url", msgURL},
	{"must be a number", msgNumber},
	{"must be between", msgNumber},
	{"must be true or false", msgBool},

	// File
	{"file exceeds size limit", msgFileSize},
	{"request body too large", msgFileSize},
	{"no recognized column labels", msgHeader},
	{"line exceeds maximum length", msgLineLong},
	{"no file provided", msgNoFile},
	{"file is empty", msgEmptyFile},

	// Submission; "not submitted" wraps context errors so it goes first.
	{"not submitted", msgNotSent},
	{"business api returned 409", msgDuplicate},
	{"business api returned 401", msgAPIAuth},
	{"business api returned 403", msgAPIAuth},
	{"business api returned 5", msgAPIDown},
	{"connection refused", msgAPIDown},
	{"business api returned 4", msgAPIRejected},

	// Batch lifecycle
	{"parse cancelled", msgCancelled},
	{"batch cancelled", msgCancelled},
	{"too many concurrent batches", msgBusy},
	{"batch not found", msgNoBatch},
	{"context canceled", msgReqCancel},
	{"context deadline exceeded", msgTimeout},

	// Session
	{"invalid credentials", msgBadLogin},
	{"no active session", msgNoSession},
	{"admin role required", msgNotAdmin},

	{"rate limit", msgRate},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Unknown
// errors map to ERR000; nil maps to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a specific pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// DefaultErrorDisplayLimit is how many messages a summary shows.
const DefaultErrorDisplayLimit = 10

// ErrorSummary is a capped view of a message list.
type ErrorSummary struct {
	Shown []string `json:"shown"`
	More  int      `json:"more"`
}

// MoreLabel is "+N more", or "" when nothing is hidden.
func (s ErrorSummary) MoreLabel() string {
	if s.More <= 0 {
		return ""
	}
	return fmt.Sprintf("+%d more", s.More)
}

// Summarize keeps the first limit messages and counts the rest.
func Summarize(messages []string, limit int) ErrorSummary {
	if limit <= 0 {
		limit = DefaultErrorDisplayLimit
	}
	if len(messages) <= limit {
		return ErrorSummary{Shown: append([]string{}, messages...)}
	}
	return ErrorSummary{
		Shown: append([]string{}, messages[:limit]...),
		More:  len(messages) - limit,
	}
}
