// Package logging builds the zap logger shared by the CLI and pipeline.
package logging

import "go.uber.org/zap"

// New builds a console logger. Debug mode enables development output at
// debug level; otherwise warnings and above are shown so pipeline
// degradation stays visible without drowning normal runs.
func New(debug bool) (*zap.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	cfg.Encoding = "console"
	return cfg.Build()
}
