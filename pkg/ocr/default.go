package ocr

import (
	"sync"
)

var (
	defaultPool *Pool
	defaultOnce sync.Once
)

// Init builds the process-wide pool exactly once; later calls return the pool
// created by the first. All verification requests share it.
func Init(textN, detectN int, newText func() (TextEngine, error), newDetect func() (ScriptDetector, error)) *Pool {
	defaultOnce.Do(func() {
		defaultPool = NewPool(textN, detectN, newText, newDetect)
	})
	return defaultPool
}

// Default returns the process-wide pool, or nil before Init.
func Default() *Pool {
	return defaultPool
}
