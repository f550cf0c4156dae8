// Package report renders validation.Report values through embedded pongo2
// templates. The CLI uses it for the output of the check command.
package report
