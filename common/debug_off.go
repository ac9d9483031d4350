//go:build !oxydebug

package common

// DebugBuild is true when the engine is built with the oxydebug tag.
const DebugBuild = false
