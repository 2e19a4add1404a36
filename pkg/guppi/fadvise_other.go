//go:build !linux

package guppi

import "os"

func adviseSequential(*os.File) {}
