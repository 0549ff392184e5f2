//go:build !windows

package main

import (
	"log"

	"middle-screenshot/src/screenshot"
)

func enableDPIAwareness() {}

func logMonitorConfiguration() {
	b, err := screenshot.VirtualBounds()
	if err != nil {
		log.Printf("MONITOR: %v", err)
		return
	}
	log.Printf("MONITOR: virtual screen %v", b)
}
