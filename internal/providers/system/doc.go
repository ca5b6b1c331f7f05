// Package system exposes host facts as service tools: runtime info, the
// descriptor and process rlimits that cap how many children can be
// launched, and a ping for liveness checks.
package system
