package entitlement

import (
	"fmt"
	"strings"
)

// Feature represents a gated capability of the platform
type Feature string

const (
	// FeatureBookUpload tracks books uploaded to a principal's library (lifetime)
	FeatureBookUpload Feature = "BOOK_UPLOAD"

	// FeatureQuizGeneration tracks quizzes generated in the current month
	FeatureQuizGeneration Feature = "QUIZ_GENERATION"

	// FeatureAIQuery tracks AI tutor queries made in the current month
	FeatureAIQuery Feature = "AI_QUERY"

	// FeatureClassCreation tracks concurrently active classes owned by a teacher
	FeatureClassCreation Feature = "CLASS_CREATION"
)

// String returns the string representation of Feature
func (f Feature) String() string {
	return string(f)
}

// IsValid returns true if the feature is valid
func (f Feature) IsValid() bool {
	switch f {
	case FeatureBookUpload,
		FeatureQuizGeneration,
		FeatureAIQuery,
		FeatureClassCreation:
		return true
	}
	return false
}

// ResetPeriod returns when the counter backing this feature resets
func (f Feature) ResetPeriod() ResetPeriod {
	switch f {
	case FeatureQuizGeneration, FeatureAIQuery:
		return ResetPeriodMonthly
	default:
		return ResetPeriodNever
	}
}

// CountsLive returns true if the current usage for this feature is derived
// from a live count of source records (books on disk, active classes) rather
// than an accumulated counter
func (f Feature) CountsLive() bool {
	switch f {
	case FeatureBookUpload, FeatureClassCreation:
		return true
	}
	return false
}

// DisplayName returns a human-readable name for the feature
func (f Feature) DisplayName() string {
	switch f {
	case FeatureBookUpload:
		return "Book Uploads"
	case FeatureQuizGeneration:
		return "Quiz Generation"
	case FeatureAIQuery:
		return "AI Queries"
	case FeatureClassCreation:
		return "Classes"
	default:
		return string(f)
	}
}

// Unit returns the noun used when rendering counts of this feature
func (f Feature) Unit() string {
	switch f {
	case FeatureBookUpload:
		return "books"
	case FeatureQuizGeneration:
		return "quizzes"
	case FeatureAIQuery:
		return "queries"
	case FeatureClassCreation:
		return "classes"
	default:
		return "items"
	}
}

// AllFeatures returns all valid features
func AllFeatures() []Feature {
	return []Feature{
		FeatureBookUpload,
		FeatureQuizGeneration,
		FeatureAIQuery,
		FeatureClassCreation,
	}
}

// ParseFeature parses a string into a Feature.
// Accepts both the canonical form ("BOOK_UPLOAD") and the kebab-case form
// used in URLs ("book-upload").
func ParseFeature(s string) (Feature, error) {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	f := Feature(normalized)
	if !f.IsValid() {
		return "", fmt.Errorf("invalid feature: %s", s)
	}
	return f, nil
}

// ResetPeriod represents when a usage counter resets
type ResetPeriod string

const (
	// ResetPeriodMonthly resets usage at the start of each calendar month
	ResetPeriodMonthly ResetPeriod = "MONTHLY"

	// ResetPeriodNever never resets (lifetime and live-counted limits)
	ResetPeriodNever ResetPeriod = "NEVER"
)

// String returns the string representation of ResetPeriod
func (r ResetPeriod) String() string {
	return string(r)
}

// IsValid returns true if the reset period is valid
func (r ResetPeriod) IsValid() bool {
	switch r {
	case ResetPeriodMonthly, ResetPeriodNever:
		return true
	}
	return false
}

// DisplayName returns a human-readable name for the reset period
func (r ResetPeriod) DisplayName() string {
	switch r {
	case ResetPeriodMonthly:
		return "Monthly"
	case ResetPeriodNever:
		return "Never"
	default:
		return string(r)
	}
}
