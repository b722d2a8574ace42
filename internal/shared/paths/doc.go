// Package paths resolves install roots and validates app names.
package paths
