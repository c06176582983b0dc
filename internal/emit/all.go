package emit

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"github.com/roach88/flatbind/internal/ir"
)

// EmitAll runs Emit over independent models concurrently. Each run owns its
// memo tables, so nothing is shared between goroutines. Outputs are returned
// in input order; if any run fails, the error names every failing library and
// no outputs are returned.
func EmitAll(models []*ir.Model, opts Options) ([]*ir.Output, error) {
	outs := make([]*ir.Output, len(models))
	errs := make([]error, len(models))

	var wg sync.WaitGroup
	for i, m := range models {
		wg.Add(1)
		go func(i int, m *ir.Model) {
			defer wg.Done()
			out, err := Emit(m, opts)
			if err != nil {
				errs[i] = fmt.Errorf("library %s: %w", m.Library.Name, err)
				return
			}
			outs[i] = out
		}(i, m)
	}
	wg.Wait()

	if err := multierr.Combine(errs...); err != nil {
		return nil, err
	}
	return outs, nil
}
