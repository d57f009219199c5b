package engine

import (
	"fmt"
	"strings"

	"github.com/nconklindev/censo/internal/schema"
	"github.com/nconklindev/censo/internal/types"
)

// IssueKind tells why an upload is not ready for import.
type IssueKind string

const (
	MissingRequiredColumn IssueKind = "missing_required_column"
	NullRequiredValue     IssueKind = "null_required_value"
)

// RequiredIssue is one problem found by CheckRequired.
type RequiredIssue struct {
	Kind    IssueKind `json:"kind"`
	Field   string    `json:"field"`
	Message string    `json:"message"`
}

// CheckRequired checks the raw upload, by header name, against the format's
// required fields. It does not look at the column mapping.
func CheckRequired(src *types.FileData, format schema.ImportFormat) []RequiredIssue {
	var issues []RequiredIssue
	for _, field := range format.Required {
		col := src.Column(field)
		if col < 0 {
			issues = append(issues, RequiredIssue{
				Kind:    MissingRequiredColumn,
				Field:   field,
				Message: fmt.Sprintf("required column %q not found in file", field),
			})
			continue
		}
		for r := range src.Rows {
			if strings.TrimSpace(src.Cell(r, col)) == "" {
				issues = append(issues, RequiredIssue{
					Kind:    NullRequiredValue,
					Field:   field,
					Message: fmt.Sprintf("required column %q contains empty values", field),
				})
				break
			}
		}
	}
	return issues
}

// Messages flattens issues into their human-readable text.
func Messages(issues []RequiredIssue) []string {
	msgs := make([]string, len(issues))
	for i, issue := range issues {
		msgs[i] = issue.Message
	}
	return msgs
}
