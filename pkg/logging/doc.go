// Package logging is the structured logger shared by every sgraph package.
//
// Messages carry a subsystem tag so output from the analyzer, the rule
// engine and the servers can be told apart:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//	logging.Info("rules", "validation finished: %d passed", n)
//	logging.Error("loader", err, "failed to load %s", path)
//
// Until InitForCLI is called nothing is written, so library callers and
// tests stay quiet.
package logging
