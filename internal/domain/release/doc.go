// Package release holds the pure model of a packaging run: build
// configuration names, archive naming, produced artifacts and the optional
// release manifest. Nothing here touches processes; the filesystem is only
// used to checksum finished archives.
package release
