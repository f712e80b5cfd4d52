package interpret

import "golang.org/x/sync/errgroup"

// pair runs fn on both values concurrently and returns each side's result
// and error in input order.
func pair[T, R any](a, b T, fn func(T) (R, error)) ([2]R, [2]error) {
	var (
		out  [2]R
		errs [2]error
		eg   errgroup.Group
	)
	for i, v := range [2]T{a, b} {
		eg.Go(func() error {
			out[i], errs[i] = fn(v)
			return nil
		})
	}
	_ = eg.Wait()
	return out, errs
}

// firstError reports side A's error before side B's.
func firstError(errs [2]error) error {
	if errs[0] != nil {
		return errs[0]
	}
	return errs[1]
}
