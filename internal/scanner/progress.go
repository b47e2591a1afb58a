package scanner

// ProgressObserver receives the fraction of files processed during a load.
// It is called synchronously from the loading goroutines, one call at a time;
// implementations marshal the value to their own context if needed.
type ProgressObserver interface {
	Progress(fraction float64)
}

// ProgressFunc adapts a function to ProgressObserver.
type ProgressFunc func(fraction float64)

func (f ProgressFunc) Progress(fraction float64) { f(fraction) }
