package journal

// Database drivers selectable through the journal.driver config key:
// "sqlite" (default, file-backed) and "postgres".
import (
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)
