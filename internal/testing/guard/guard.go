package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("STACKCHART_TEST_MODE") == "" {
			_ = os.Setenv("STACKCHART_TEST_MODE", "1")
		}
	})
}
