// Package fs abstracts the file system operations used to write blobs, so
// tests can inject faults.
//
// Production code uses fs.Default (LocalFS). Tests wrap it in a FaultyFS:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("tables/", fs.Fault{FailOnSync: true})
package fs
