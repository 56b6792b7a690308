package errprocess

import (
	"errors"
	"spiritual_growth_service/pkg/logger"
)

// Set log err info
func Set(errMsg string) error {
	logger.Log.Error(errMsg)
	return errors.New(errMsg)
}
