// Package archive bundles an install tree into a gzip-compressed tarball.
//
// Entries are rooted at the tree itself ("./bin/tool"), the layout produced
// by `tar -czf out.tar.gz -C dir .`. Native writes the archive in-process;
// External shells out to a tar binary.
package archive
