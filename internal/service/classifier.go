package service

import (
	"context"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// Classification is what the text classification oracle extracts from a
// complaint.
type Classification struct {
	Category            domain.Category
	Severity            domain.Severity
	SuggestedDepartment string
}

// Classifier is the external text understanding collaborator. Intake
// consults it only when the caller did not supply a category.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, text string) (Classification, error)

// Classify implements Classifier.
func (f ClassifierFunc) Classify(ctx context.Context, text string) (Classification, error) {
	return f(ctx, text)
}
