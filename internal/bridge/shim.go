package bridge

import (
	"fmt"

	"github.com/roach88/flatbind/internal/ir"
)

// ExceptionVar returns the name of the thread-local string a library's shim
// stores exception messages in.
func ExceptionVar(lib string) string {
	return lib + "_exception_string"
}

// MessageAccessor returns the name of the exported function that reads the
// calling thread's last exception message.
func MessageAccessor(lib string) string {
	return lib + "_get_exception_string"
}

// ShimBody returns the C++ statements of a bridged function body. stmt
// performs the call and, for functions with a nominal return, stores the
// result through return_. An intercepted exception sets the status to
// StatusException and records its message for the calling thread only.
func ShimBody(stmt, exceptionVar string) []string {
	return []string{
		"try {",
		"    " + stmt,
		fmt.Sprintf("    return %d;", ir.StatusOK),
		"} catch (std::exception& e) {",
		"    " + exceptionVar + " = e.what();",
		"    return -1;",
		"} catch (...) {",
		"    " + exceptionVar + ` = "unknown exception";`,
		"    return -1;",
		"}",
	}
}
