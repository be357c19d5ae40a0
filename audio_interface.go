// audio_interface.go - Host audio sink interface

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later
*/

package main

// AudioOutput is a host audio sink that pulls rendered frames from the
// SPU engine.
type AudioOutput interface {
	Start() error
	Stop() error
	Close() error
}
