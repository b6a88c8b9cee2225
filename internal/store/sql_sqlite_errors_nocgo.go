//go:build !cgo

package store

// SQLiteErrorClassifier is a stub: without cgo the sqlite3 driver cannot
// open a database, so there is never a driver error to classify.
type SQLiteErrorClassifier struct{}

// NewSQLiteErrorClassifier constructs a [SQLiteErrorClassifier].
func NewSQLiteErrorClassifier() *SQLiteErrorClassifier {
	return &SQLiteErrorClassifier{}
}

func (c *SQLiteErrorClassifier) Classify(error) ErrorClassification { return NonRetryable }

func (c *SQLiteErrorClassifier) IsUniqueViolation(error) bool { return false }
