package pack

// PackageBuilderOption is a functional option for configuring a Package.
type PackageBuilderOption func(*gamePackage)

// WithWorkers sets how many goroutines serve BeginReadFile. Values below 1 are raised to 1.
//
// Parameters:
//   - n: the number of read workers (default 2)
//
// Returns:
//   - PackageBuilderOption: option function to apply
func WithWorkers(n int) PackageBuilderOption {
	return func(g *gamePackage) {
		g.workers = max(n, 1)
	}
}
