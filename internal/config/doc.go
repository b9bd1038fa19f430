// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation,
// so the access token can stay out of the file:
//
//	session:
//	  access_token: ${DREO_ACCESS_TOKEN}
package config
