// Package database keeps a SQLite history of interval reports.
//
// The schema is created by versioned migrations embedded in the binary
// (migrations/NNNN_name.up.sql, forward only). Each run of the
// tool writes one row per reporting interval, keyed by a run identifier:
//
//	db, err := database.Open(ctx, cfg.History)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//	err = db.InsertReport(ctx, database.IntervalReport{RunID: runID, Interval: 1, Of: 30})
//
// All queries use parameterised statements. The database file is created
// with mode 0600.
package database
