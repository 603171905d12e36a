//go:build ecsdebug

package invariant

const defaultEnabled = true
