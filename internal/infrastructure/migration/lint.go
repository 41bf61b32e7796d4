package migration

import (
	"fmt"
	"io/fs"
	"regexp"
	"strings"
)

// Violation describes a statement that would make a migration fail when it
// is re-applied or rolled back against a drifted schema.
type Violation struct {
	File    string
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.File, v.Message)
}

var (
	lineComment = regexp.MustCompile(`--[^\n]*`)
	doBlock     = regexp.MustCompile(`(?is)DO\s+\$\$.*?\$\$\s*;`)

	createTable  = regexp.MustCompile(`(?i)\bCREATE\s+TABLE\s+(\w+)`)
	createIndex  = regexp.MustCompile(`(?i)\bCREATE\s+(?:UNIQUE\s+)?INDEX\s+(?:CONCURRENTLY\s+)?(\w+)`)
	addColumn    = regexp.MustCompile(`(?i)\bADD\s+COLUMN\s+(\w+)`)
	createExt    = regexp.MustCompile(`(?i)\bCREATE\s+EXTENSION\s+(\w+)`)
	dropObject   = regexp.MustCompile(`(?i)\bDROP\s+(?:TABLE|INDEX|TYPE|CONSTRAINT|VIEW|SEQUENCE|FUNCTION|COLUMN|EXTENSION)\s+(\w+)`)
	bareAddCheck = regexp.MustCompile(`(?i)\bADD\s+CONSTRAINT\b`)
	bareType     = regexp.MustCompile(`(?i)\bCREATE\s+TYPE\b`)
)

// Lint checks every migration pair in fsys for the re-runnable patterns the
// schema relies on. It returns no violations for a compliant set.
func Lint(fsys fs.FS) ([]Violation, error) {
	names, err := ListMigrations(fsys)
	if err != nil {
		return nil, err
	}

	var out []Violation
	for _, base := range names {
		up, err := fs.ReadFile(fsys, base+".up.sql")
		if err != nil {
			return nil, err
		}
		out = append(out, lintUp(base+".up.sql", string(up))...)

		down, err := fs.ReadFile(fsys, base+".down.sql")
		if err != nil {
			out = append(out, Violation{File: base, Message: "missing down migration"})
			continue
		}
		out = append(out, lintDown(base+".down.sql", string(down))...)
	}
	return out, nil
}

func lintUp(file, sql string) []Violation {
	sql = lineComment.ReplaceAllString(sql, "")
	var out []Violation

	requireIf := func(re *regexp.Regexp, what string, text string) {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if !strings.EqualFold(m[1], "IF") {
				out = append(out, Violation{File: file, Message: fmt.Sprintf("%s %s without IF NOT EXISTS", what, m[1])})
			}
		}
	}

	requireIf(createTable, "CREATE TABLE", sql)
	requireIf(createIndex, "CREATE INDEX", sql)
	requireIf(addColumn, "ADD COLUMN", sql)
	requireIf(createExt, "CREATE EXTENSION", sql)

	outside := doBlock.ReplaceAllString(sql, "")
	if bareAddCheck.MatchString(outside) {
		out = append(out, Violation{File: file, Message: "ADD CONSTRAINT outside a guarded DO block"})
	}
	if bareType.MatchString(outside) {
		out = append(out, Violation{File: file, Message: "CREATE TYPE outside a guarded DO block"})
	}
	return out
}

func lintDown(file, sql string) []Violation {
	sql = lineComment.ReplaceAllString(sql, "")
	var out []Violation
	for _, m := range dropObject.FindAllStringSubmatch(sql, -1) {
		if !strings.EqualFold(m[1], "IF") {
			out = append(out, Violation{File: file, Message: fmt.Sprintf("DROP %s without IF EXISTS", m[1])})
		}
	}
	return out
}
