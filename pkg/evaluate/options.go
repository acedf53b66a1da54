package evaluate

// Option configures Search.
type Option func(*config)

type config struct {
	grid     []float64
	workers  int
	progress func(ThresholdResult)
}

func defaultConfig() config {
	return config{
		grid:    DefaultGrid(),
		workers: 1,
	}
}

// DefaultGrid returns the 101 thresholds 0.00, 0.01, ..., 1.00.
func DefaultGrid() []float64 {
	grid := make([]float64, 101)
	for t := range grid {
		grid[t] = float64(t) / 100
	}
	return grid
}

// WithGrid replaces the threshold grid. Thresholds are visited in the order
// given; ties are resolved in favour of the earlier one.
func WithGrid(grid []float64) Option {
	return func(c *config) {
		c.grid = grid
	}
}

// WithWorkers evaluates up to n thresholds at once (default: 1).
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithProgress registers a callback that receives each threshold's result,
// in grid order.
func WithProgress(fn func(ThresholdResult)) Option {
	return func(c *config) {
		c.progress = fn
	}
}
