package sqlvalidation

import "strings"

type statement struct {
	sql       string
	startLine int
}

// splitStatements splits SQL on semicolons while tracking line numbers and
// ignoring semicolons inside string literals and comments.
func splitStatements(sql string) []statement {
	var statements []statement
	var current strings.Builder
	currentLine := 1
	stmtStartLine := 1

	inSingleQuote := false
	inDoubleQuote := false
	inLineComment := false
	inBlockComment := false

	runes := []rune(sql)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		if ch == '\n' {
			currentLine++
			if inLineComment {
				inLineComment = false
			}
		}

		if !inSingleQuote && !inDoubleQuote {
			if !inBlockComment && i+1 < len(runes) && ch == '-' && runes[i+1] == '-' {
				inLineComment = true
			}
			if !inLineComment && i+1 < len(runes) && ch == '/' && runes[i+1] == '*' {
				inBlockComment = true
			}
			if inBlockComment && i+1 < len(runes) && ch == '*' && runes[i+1] == '/' {
				inBlockComment = false
				current.WriteRune(ch)
				i++
				if i < len(runes) {
					current.WriteRune(runes[i])
				}
				continue
			}
		}

		if !inLineComment && !inBlockComment {
			if ch == '\'' && (i == 0 || runes[i-1] != '\\') {
				inSingleQuote = !inSingleQuote
			}
			if ch == '"' && (i == 0 || runes[i-1] != '\\') {
				inDoubleQuote = !inDoubleQuote
			}
		}

		if ch == ';' && !inSingleQuote && !inDoubleQuote && !inLineComment && !inBlockComment {
			current.WriteRune(ch)
			statements = append(statements, statement{
				sql:       current.String(),
				startLine: stmtStartLine,
			})
			current.Reset()
			stmtStartLine = currentLine
			continue
		}

		current.WriteRune(ch)
	}

	if current.Len() > 0 {
		statements = append(statements, statement{
			sql:       current.String(),
			startLine: stmtStartLine,
		})
	}

	return statements
}
