// Package fileutil holds small file-writing helpers shared by the output
// writer and the config sample generator.
package fileutil
