// logging.go - Subsystem log helpers

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later
*/

package main

import "log"

func logGpu(format string, args ...any) {
	log.Printf("GPU: "+format, args...)
}

func logSpu(format string, args ...any) {
	log.Printf("SPU: "+format, args...)
}
