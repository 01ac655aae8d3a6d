// Package config loads outlookctl settings with viper from an optional
// YAML file, OUTLOOKCTL_* environment variables and command line flags.
//
// Example config.yaml:
//
//	backend: fixture
//	fixture:
//	  path: /home/me/mailbox.yaml
//	  writeback: true
//	availability:
//	  interval_minutes: 15
//	  day_start_hour: 8
//	  day_end_hour: 18
//	log:
//	  level: debug
//	  format: json
//	output: text
package config
