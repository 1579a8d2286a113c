// Package repositories implements SQLite persistence for the song catalogue.
//
// Key Implementations:
//   - [SongRepository] : CRUD, filtered pagination and remote URL bookkeeping for the canciones table
//   - [DBTX] : the connection contract, satisfied by *sql.DB, *sql.Conn and *sql.Tx
//
// Search terms are always bound as parameters; LIKE wildcards in user input are escaped so a search
// for "100%" matches the literal text.
package repositories
