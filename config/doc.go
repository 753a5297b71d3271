// Package config loads pubsub configuration with viper.
//
// Configuration is read from a YAML (or any viper-supported) file given by
// path, or searched as "config" in /etc/pubsub, $HOME/.pubsub, the working
// directory and the executable's directory. Every key can be overridden
// from the environment with the PUBSUB_ prefix, dots replaced by
// underscores:
//
//	PUBSUB_BUS_EXECUTOR=pool PUBSUB_BUS_WORKERS=4 pubsub demo
//
// # Example
//
//	app_name: pubsub
//	run_mode: development
//	logger:
//	  level: 4        # logrus level, 4 = info
//	  format: json    # json | text
//	  output: stdout  # stdout | stderr | file
//	  output_file: ./logs/pubsub.log
//	bus:
//	  executor: pool  # goroutine | pool | limited
//	  max_concurrent: 8  # limited only
//	  workers: 8
//	  queue_size: 1024
//	  task_timeout: 30s
//
// # Reloading
//
//	cfg, _ := config.LoadConfig("config.yaml")
//	err := cfg.Watch(func(next *config.Config) {
//	    logger.StdLogger().SetLevel(logrus.Level(next.Logger.Level))
//	})
package config
