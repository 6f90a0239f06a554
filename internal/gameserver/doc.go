// Package gameserver is the caller side of the battle engine. It owns the
// sessions of connected players, drives them through the engine, and hands
// terminal results to storage. Runtime assembles content, scripting and
// storage from configuration for the binaries.
package gameserver
