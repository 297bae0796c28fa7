// Package display formats what a batch run prints on stdout: one status line
// per folder, overwrite warnings and progress for multi-folder commands.
//
// # Status lines
//
//	status := display.NewStatusPrinter(os.Stdout, root)
//	status.Begin(folder)            // "cad1/gmsh_0.1..."
//	status.End(models.StatusDone)   // "Done"
//
// # Warning Messages
//
//	display.OverwriteWarning(existing).Display(os.Stdout, status.Color())
//
// Colors are enabled only when the output is a terminal and NO_COLOR is unset.
package display
