package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// Common allowed sort fields for entities with base fields
// These are the common fields present in most entities

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// AccountSortFields contains allowed sort fields for accounts
var AccountSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"email":         true,
	"display_name":  true,
	"role":          true,
	"tier":          true,
	"status":        true,
	"last_login_at": true,
}

// InstituteSortFields contains allowed sort fields for institutes
var InstituteSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"code":       true,
	"name":       true,
	"status":     true,
	"tier":       true,
	"expires_at": true,
}

// EnrollmentSortFields contains allowed sort fields for enrollments
var EnrollmentSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"account_id": true,
	"status":     true,
	"joined_at":  true,
	"removed_at": true,
}

// BookSortFields contains allowed sort fields for books
var BookSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"title":        true,
	"status":       true,
	"file_name":    true,
	"file_size":    true,
	"content_type": true,
	"page_count":   true,
}

// ClassSortFields contains allowed sort fields for classes
var ClassSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"name":        true,
	"subject":     true,
	"status":      true,
	"archived_at": true,
}

// QuizSortFields contains allowed sort fields for quizzes
var QuizSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"title":          true,
	"status":         true,
	"book_id":        true,
	"question_count": true,
}

// AIQuerySortFields contains allowed sort fields for AI query records
var AIQuerySortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"asked_at":     true,
	"book_id":      true,
	"model_tag":    true,
	"prompt_chars": true,
	"answer_chars": true,
}

// UsageProfileSortFields contains allowed sort fields for usage profiles
var UsageProfileSortFields = map[string]bool{
	"id":                 true,
	"created_at":         true,
	"updated_at":         true,
	"principal_id":       true,
	"audience":           true,
	"plan_id":            true,
	"last_monthly_reset": true,
}
