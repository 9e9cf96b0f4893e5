package core

// error_messages.go maps technical errors to user-facing messages with a
// support code, and to HTTP status codes.
//
// Known domain errors are matched with errors.Is first, in table order.
// Infrastructure errors that only surface as text (driver and network
// failures) are matched case-insensitively by substring afterwards. When
// nothing matches, ERR000 is returned and the original error should be read
// from the logs.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/qartha/idfportal/internal/devicecsv"
	"github.com/qartha/idfportal/internal/table"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorRule maps a sentinel to its status and message.
type errorRule struct {
	target error
	status int
	msg    UserMessage
}

var errorRules = []errorRule{
	// =========================================================================
	// Table Editing (TBL001-TBL005)
	// =========================================================================
	{table.ErrIndexOutOfRange, http.StatusNotFound, UserMessage{
		Message: "That row no longer exists",
		Action:  "Reload the table and try again",
		Code:    "TBL001",
	}},
	{table.ErrUnknownColumn, http.StatusUnprocessableEntity, UserMessage{
		Message: "That column is not part of this table",
		Action:  "Reload the table to get the current columns",
		Code:    "TBL002",
	}},
	{table.ErrSchema, http.StatusUnprocessableEntity, UserMessage{
		Message: "The table columns are invalid",
		Action:  "Check that every column has a unique key, a known type, and options for select columns",
		Code:    "TBL003",
	}},
	{ErrNoTable, http.StatusNotFound, UserMessage{
		Message: "This IDF has no table yet",
		Action:  "Create the table first",
		Code:    "TBL004",
	}},
	{ErrTableExists, http.StatusConflict, UserMessage{
		Message: "This IDF already has a table",
		Action:  "Edit the existing table or replace it",
		Code:    "TBL005",
	}},

	// =========================================================================
	// Device CSV Import (CSV001)
	// =========================================================================
	{devicecsv.ErrParse, http.StatusUnprocessableEntity, UserMessage{
		Message: "The CSV file could not be imported",
		Action:  "Download the template and compare the header row",
		Code:    "CSV001",
	}},

	// =========================================================================
	// IDF Records (IDF001-IDF005)
	// =========================================================================
	{ErrIDFNotFound, http.StatusNotFound, UserMessage{
		Message: "IDF not found",
		Action:  "Check the IDF code",
		Code:    "IDF001",
	}},
	{ErrIDFExists, http.StatusConflict, UserMessage{
		Message: "An IDF with this code already exists",
		Action:  "Choose a different code or edit the existing IDF",
		Code:    "IDF002",
	}},
	{ErrClusterNotFound, http.StatusNotFound, UserMessage{
		Message: "Cluster not found",
		Action:  "Check the cluster name in the address",
		Code:    "IDF003",
	}},
	{ErrProjectNotFound, http.StatusNotFound, UserMessage{
		Message: "Project not found",
		Action:  "Check the project name in the address",
		Code:    "IDF004",
	}},
	{ErrInvalidInput, http.StatusUnprocessableEntity, UserMessage{
		Message: "Some fields are invalid",
		Action:  "Correct the input and submit again",
		Code:    "IDF005",
	}},

	// =========================================================================
	// Assets (AST001-AST002)
	// =========================================================================
	{ErrAssetNotFound, http.StatusNotFound, UserMessage{
		Message: "File not found",
		Action:  "Reload the page; it may have been removed already",
		Code:    "AST001",
	}},
	{ErrInvalidAsset, http.StatusBadRequest, UserMessage{
		Message: "This file cannot be used here",
		Action:  "Images, location and logo uploads must be image files",
		Code:    "AST002",
	}},

	// =========================================================================
	// Authentication (AUTH001-AUTH003)
	// =========================================================================
	{ErrInvalidCredentials, http.StatusUnauthorized, UserMessage{
		Message: "Invalid email or password",
		Action:  "Check your credentials and try again",
		Code:    "AUTH001",
	}},
	{ErrUnauthenticated, http.StatusUnauthorized, UserMessage{
		Message: "Not authenticated",
		Action:  "Sign in and try again",
		Code:    "AUTH002",
	}},
	{ErrForbidden, http.StatusForbidden, UserMessage{
		Message: "Admin access required",
		Action:  "Ask an administrator to make this change",
		Code:    "AUTH003",
	}},
	{ErrUserExists, http.StatusConflict, UserMessage{
		Message: "A user with this email already exists",
		Action:  "Use a different email address",
		Code:    "AUTH004",
	}},

	// =========================================================================
	// Uploads and Request Lifetime (UPL002-UPL005)
	// =========================================================================
	{ErrTooManyUploads, http.StatusServiceUnavailable, UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}},
	{context.Canceled, 499, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "UPL005",
	}},
}

// errorPattern matches infrastructure errors by message text.
type errorPattern struct {
	pattern string
	status  int
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{"request body too large", http.StatusRequestEntityTooLarge, UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Upload a smaller file",
		Code:    "UPL006",
	}},
	{"connection refused", http.StatusServiceUnavailable, UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
	}},
	{"connection reset", http.StatusServiceUnavailable, UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB005",
	}},
	{"timeout", http.StatusGatewayTimeout, UserMessage{
		Message: "Operation timed out",
		Action:  "Please try again later",
		Code:    "DB006",
	}},
	{"deadlock", http.StatusServiceUnavailable, UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB007",
	}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Field validation and CSV header failures carry their own detail in the
// message so the user can see which field or column is wrong.
//
// Example:
//
//	msg := MapError(fmt.Errorf("update cell: %w", table.ErrUnknownColumn))
//	// msg.Code == "TBL002"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ie *InputError
	if errors.As(err, &ie) {
		return UserMessage{Message: ie.Error(), Action: "Correct the input and submit again", Code: "IDF005"}
	}
	var pe *devicecsv.ParseError
	if errors.As(err, &pe) && len(pe.Missing) > 0 {
		return UserMessage{
			Message: "The CSV file is missing required columns: " + strings.Join(pe.Missing, ", "),
			Action:  "Download the template and compare the header row",
			Code:    "CSV002",
		}
	}

	if rule, ok := matchRule(err); ok {
		return rule.msg
	}
	if p, ok := matchPattern(err); ok {
		return p.msg
	}
	return defaultMessage
}

// HTTPStatus returns the response status for err. Unknown errors are 500.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if rule, ok := matchRule(err); ok {
		return rule.status
	}
	if p, ok := matchPattern(err); ok {
		return p.status
	}
	return http.StatusInternalServerError
}

func matchRule(err error) (errorRule, bool) {
	for _, r := range errorRules {
		if errors.Is(err, r.target) {
			return r, true
		}
	}
	return errorRule{}, false
}

func matchPattern(err error) (errorPattern, bool) {
	errStr := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(errStr, p.pattern) {
			return p, true
		}
	}
	return errorPattern{}, false
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
