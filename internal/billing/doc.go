// Package billing projects subscription charges into the future and aggregates spend.
//
// Every function is pure: it reads the snapshot it is given, never mutates it and keeps no
// state between calls. Malformed records degrade to zero values instead of failing the whole
// computation, so a single bad subscription can never blank a dashboard.
package billing
