package log

import (
	"go.uber.org/zap"
)

// New builds the process logger. Production mode emits JSON, anything else the
// development console encoder.
func New(mode string) (*zap.Logger, error) {
	if mode == "production" {
		cfg := zap.NewProductionConfig()
		cfg.InitialFields = map[string]interface{}{"service": "mb-basketd"}
		return cfg.Build()
	}
	return zap.NewDevelopment()
}
