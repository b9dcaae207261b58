// Package config loads application settings with viper from an optional
// config.yaml and TASKS_-prefixed environment variables, applies defaults,
// and validates the result with struct tags before anything else starts.
package config
