// Package config provides configuration structures and utilities for scanherald.
// It defines the scanning service connection settings, the notification
// delivery options, filesystem paths, and the polling cadence used by the
// reconciliation run.
package config
