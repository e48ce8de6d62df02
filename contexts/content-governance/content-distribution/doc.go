// Package contentdistribution serves approved content to tier-scoped
// consumption surfaces. It is a read projection over the proposal store and
// never writes to it.
package contentdistribution
