package mysql

const insertSearchSQL = `
INSERT INTO search_log
  (session_id, query, outcome, results, created_at)
VALUES
  (?, ?, ?, ?, ?)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Newest first; aligns with the index on (created_at, id).
const recentSearchesSQL = `
SELECT
  id,
  session_id,
  query,
  outcome,
  results,
  created_at
FROM search_log
ORDER BY created_at DESC, id DESC
LIMIT ?
`
