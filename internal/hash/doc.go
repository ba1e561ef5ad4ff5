// Package hash provides the checksum used for table blocks.
package hash
