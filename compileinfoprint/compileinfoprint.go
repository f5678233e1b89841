// compileinfoprint is imported by the cdxs binaries for the side effect of
// printing their build provenance to os.Stderr at startup
package compileinfoprint

import "github.com/cdreader/cdxs/compileinfo"

func init() {
	compileinfo.PrintToStdErr()
}
