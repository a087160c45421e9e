// Package sql screens generated values before they are written.
package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"

	"github.com/ekaya-inc/ekaya-faker/pkg/models"
)

// InjectionCheckResult describes a generated value that matches a SQL
// injection fingerprint.
type InjectionCheckResult struct {
	IsSQLi      bool   // True if SQL injection pattern detected
	Fingerprint string // libinjection fingerprint of the detected pattern
	Column      string // Column the value was generated for
	Value       any    // The value that was checked
}

// CheckValueForInjection runs libinjection over a generated value.
//
// Only string values are checked. Returns nil when nothing is detected.
//
// Values are always bound as statement parameters, so a match does not make
// the insert unsafe; it flags model output worth a look (an LLM echoing
// attack strings into a "comment" column, for instance).
func CheckValueForInjection(column string, value any) *InjectionCheckResult {
	strValue, ok := value.(string)
	if !ok {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(strValue)
	if isSQLi {
		return &InjectionCheckResult{
			IsSQLi:      true,
			Fingerprint: string(fingerprint),
			Column:      column,
			Value:       value,
		}
	}

	return nil
}

// CheckRecord screens every value of a record. Results are ordered by
// column name; a clean record yields an empty slice.
func CheckRecord(record models.Record) []*InjectionCheckResult {
	var results []*InjectionCheckResult
	for _, column := range models.SortedKeys(record) {
		if result := CheckValueForInjection(column, record[column]); result != nil {
			results = append(results, result)
		}
	}
	return results
}
