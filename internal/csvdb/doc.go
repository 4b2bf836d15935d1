// Package csvdb implements flat-file CSV tables with in-memory caching.
//
// Each table is a single CSV file with a fixed header row. The whole file is
// loaded at open time and kept in memory; every mutation rewrites the full
// file atomically (temp file + rename). This is O(n) per write, which is fine
// for the personal-library scale this serves.
//
// Files written by other tools are tolerated: rows missing expected columns
// decode with empty values, and unknown columns are preserved verbatim across
// rewrites. Rows without an ID are assigned one on load and persisted back.
package csvdb
