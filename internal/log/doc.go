// Package log provides sanitized logging on top of log/slog.
//
// SecureHandler masks secrets (cookies, authorization headers, tokens,
// proxy credentials) and shortens encrypted VigiAccess identifiers
// (drug_id, soc_id) to their first characters. FanoutHandler writes the
// same record to the console and to the run log, each with its own level.
//
// # Usage
//
//	f, err := log.OpenRunLog("vigireport.log")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//	logger := log.NewRunLogger(os.Stderr, f, verbose)
//	logger.Info("distribution fetched", "drug_id", id)
package log
