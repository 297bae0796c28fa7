// Package fileutil walks the working data tree and lists the folders that
// pipeline stages operate on.
//
// # Main Components
//
// ScanOptions - configuration for ScanFolders:
//   - Depth: only folders at this depth below the scanned root (AnyDepth = every level)
//   - Pattern: regex matched against the folder base name
//   - RequireFiles: file names that must all exist inside a folder
//   - ExcludeDirs: directory names to skip entirely
//
// ScanResult - results of a scan:
//   - Folders: absolute folder paths, sorted
//   - Errors: non-fatal errors encountered during the walk
//
// Hidden directories (starting with ".") are never entered, which keeps the
// run history directory out of every scan.
//
// # Usage
//
//	result, err := fileutil.ScanFolders(root, fileutil.ScanOptions{
//	    Depth:        paths.DepthTetMesh,
//	    RequireFiles: []string{"tetra.mesh"},
//	})
//	if err != nil {
//	    return err
//	}
//	for _, folder := range result.Folders {
//	    fmt.Println(folder)
//	}
//
// The scanner collects non-fatal errors (e.g., permission denied on a subdirectory)
// and continues. Only fatal errors (root missing, invalid regex) fail the call.
package fileutil
