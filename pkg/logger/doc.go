// Package logger is the structured logging layer of inatscraper.
//
// It wraps zerolog behind a small Logger interface. Output goes to a colored
// console writer, to a plain JSON log file, or to both at once, depending on
// config.LoggingConfig.
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	log := logger.GetLogger().WithField("species", "Python molurus")
//	log.Info("Starting species")
//
// Components take a Logger through their constructors. Tests pass
// NewTestLogger to assert on what was logged, or NewNopLogger to silence it.
package logger
