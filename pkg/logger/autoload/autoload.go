// Package autoload initializes the global logger from the LOG_*
// environment on blank import.
package autoload

import (
	configx "github.com/freshfold/freshfold/pkg/config"
	logx "github.com/freshfold/freshfold/pkg/logger"
)

func init() {
	conf, err := configx.New[logx.Config]("LOG")
	if err != nil {
		conf = logx.DefaultConfig
	}
	logx.Init(*conf)
}
