package observability

import "go.uber.org/zap"

// NewLogger returns a JSON production logger, or a console development
// logger at debug level when verbose. Both write to stderr.
func NewLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
