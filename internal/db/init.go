package db

import (
	"gitlab.com/nunet/yarn-data/internal/logger"
)

var zlog *logger.Logger

func init() {
	zlog = logger.New("db")
}
