// Package config holds the vigireport run configuration, its defaults and
// validation, and the optional .vigireport YAML file.
package config
