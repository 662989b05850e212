package service

import "fmt"

// testID returns a deterministic UUID so validator uuid tags accept fixture ids.
func testID(n int) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
}

func strPtr(v string) *string {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}
