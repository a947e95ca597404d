package executor

import (
	"regexp"
)

// a trailing version suffix: anything.v11.222.333.444
var versionSuffix = regexp.MustCompile(`([.][vV][0-9]+([.][1-9]+){0,3})$`)

// NormalizeName returns the executable name for a task type, which is the type
// with any trailing version suffix removed.
func NormalizeName(taskType string) string {
	loc := versionSuffix.FindStringIndex(taskType)
	if loc == nil {
		return taskType
	}
	return taskType[:loc[0]]
}
