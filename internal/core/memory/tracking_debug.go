//go:build ecsdebug

package memory

const defaultTracking = true
