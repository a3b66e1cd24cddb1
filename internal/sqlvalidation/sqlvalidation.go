package sqlvalidation

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/stepwise-db/stepwise/internal/source"
)

// Issue is one validation finding in a migration script.
type Issue struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Severity string `json:"severity"` // "error" or "warning"
	Message  string `json:"message"`
	Code     string `json:"code,omitempty"`
}

// Result aggregates issues across all checked scripts.
type Result struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues"`
}

// CheckScripts lints every script body with the PostgreSQL parser. The
// parser speaks the postgres dialect; on sqlite projects most DDL still
// parses, so findings are reported as-is and truly dialect-specific syntax
// can be reviewed by the operator.
func CheckScripts(scripts []source.Script) *Result {
	result := &Result{Valid: true}
	for _, script := range scripts {
		issues := checkSyntax(script.Filename, script.Body)
		issues = append(issues, checkDangerousPatterns(script.Filename, script.Body)...)
		for _, issue := range issues {
			if issue.Severity == "error" {
				result.Valid = false
			}
		}
		result.Issues = append(result.Issues, issues...)
	}
	return result
}

// checkSyntax validates SQL statement by statement so one bad statement
// does not mask errors in the rest of the file.
func checkSyntax(filename, body string) []Issue {
	if _, err := pg_query.Parse(body); err == nil {
		return nil
	}

	var issues []Issue
	for _, stmt := range splitStatements(body) {
		trimmed := strings.TrimSpace(stmt.sql)
		if trimmed == "" || isCommentOnly(trimmed) {
			continue
		}
		if _, err := pg_query.Parse(stmt.sql); err != nil {
			message := strings.TrimPrefix(err.Error(), "failed to parse SQL: ")
			issues = append(issues, Issue{
				File:     filename,
				Line:     stmt.startLine,
				Severity: "error",
				Message:  message,
				Code:     "syntax_error",
			})
		}
	}
	return issues
}

// checkDangerousPatterns warns about statements that destroy data. A
// migration may legitimately do these; the lint makes them impossible to
// miss in review.
func checkDangerousPatterns(filename, body string) []Issue {
	tree, err := pg_query.Parse(body)
	if err != nil {
		// Syntax issues are already reported by checkSyntax
		return nil
	}

	var issues []Issue
	for _, raw := range tree.Stmts {
		if raw.Stmt == nil {
			continue
		}
		switch node := raw.Stmt.Node.(type) {
		case *pg_query.Node_DropStmt:
			if node.DropStmt.RemoveType == pg_query.ObjectType_OBJECT_TABLE {
				message := "DROP TABLE permanently deletes data"
				if node.DropStmt.Behavior == pg_query.DropBehavior_DROP_CASCADE {
					message += " (CASCADE also drops dependent objects)"
				}
				issues = append(issues, Issue{
					File:     filename,
					Line:     1,
					Severity: "warning",
					Message:  message,
					Code:     "drop_table",
				})
			}
		case *pg_query.Node_TruncateStmt:
			issues = append(issues, Issue{
				File:     filename,
				Line:     1,
				Severity: "warning",
				Message:  "TRUNCATE permanently deletes all rows",
				Code:     "truncate",
			})
		case *pg_query.Node_DeleteStmt:
			if node.DeleteStmt.WhereClause == nil {
				issues = append(issues, Issue{
					File:     filename,
					Line:     1,
					Severity: "warning",
					Message:  "DELETE without WHERE deletes all rows",
					Code:     "delete_all",
				})
			}
		}
	}
	return issues
}

func isCommentOnly(stmt string) bool {
	for _, line := range strings.Split(stmt, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "--") {
			return false
		}
	}
	return true
}

// Format renders issues for terminal output.
func Format(result *Result) string {
	if len(result.Issues) == 0 {
		return "No issues found\n"
	}
	var sb strings.Builder
	for _, issue := range result.Issues {
		fmt.Fprintf(&sb, "%s:%d: %s: %s\n", issue.File, issue.Line, issue.Severity, issue.Message)
	}
	return sb.String()
}
