// Package storage lays out downloaded images on disk.
//
// Images live under <root>/<species folder>/<observation id>_<photo index>.<ext>,
// where the species folder is the display name with spaces replaced by
// underscores. WriteAtomic streams a body through a .tmp file and renames it
// into place, so an interrupted download never leaves a file that a later
// run would mistake for a finished one.
package storage
