package dashboard

import (
	"errors"
	"sync"
)

// Chart is a drawn chart that can be torn down.
type Chart interface {
	// Spec is the encoded configuration the page hands to Chart.js.
	Spec() string
	Destroy() error
}

// Charts are the live charts of the latest render. Either may be nil when
// drawing failed.
type Charts struct {
	Category Chart
	Trend    Chart
}

func specOf(c Chart) string {
	if c == nil {
		return ""
	}
	return c.Spec()
}

func (c Charts) CategorySpec() string { return specOf(c.Category) }

func (c Charts) TrendSpec() string { return specOf(c.Trend) }

// Drawer draws a chart spec onto the named canvas.
type Drawer interface {
	Draw(canvas string, spec ChartSpec) (Chart, error)
}

// Session owns the two live chart handles of one page. Every Render destroys
// the previous charts before drawing new ones, so at most one chart per
// canvas is alive at a time.
type Session struct {
	mu       sync.Mutex
	drawer   Drawer
	category Chart
	trend    Chart
}

func NewSession(d Drawer) *Session {
	return &Session{drawer: d}
}

// Render computes the view for s, redraws both charts and returns the new
// ones. The returned Charts stay valid until the next Render or Close.
func (ss *Session) Render(s State) (View, Charts, error) {
	v := Render(s)
	ss.mu.Lock()
	defer ss.mu.Unlock()
	err := ss.redraw(v)
	return v, Charts{Category: ss.category, Trend: ss.trend}, err
}

func (ss *Session) redraw(v View) error {
	var errs []error
	for _, c := range []*Chart{&ss.category, &ss.trend} {
		if *c == nil {
			continue
		}
		if err := (*c).Destroy(); err != nil {
			errs = append(errs, err)
		}
		*c = nil
	}

	var err error
	if ss.category, err = ss.drawer.Draw(CategoryCanvas, v.CategoryChart); err != nil {
		errs = append(errs, err)
	}
	if ss.trend, err = ss.drawer.Draw(TrendCanvas, v.TrendChart); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Close destroys whatever charts are still alive.
func (ss *Session) Close() error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	var errs []error
	for _, c := range []*Chart{&ss.category, &ss.trend} {
		if *c != nil {
			errs = append(errs, (*c).Destroy())
			*c = nil
		}
	}
	return errors.Join(errs...)
}

// SpecChart is a Chart that only carries its encoded spec; the browser does
// the drawing.
type SpecChart struct {
	Canvas    string
	encoded   string
	destroyed bool
}

func (c *SpecChart) Spec() string { return c.encoded }

func (c *SpecChart) Destroy() error {
	c.destroyed = true
	return nil
}

func (c *SpecChart) Destroyed() bool { return c.destroyed }

// SpecDrawer draws by encoding the spec to JSON.
type SpecDrawer struct{}

func NewSpecDrawer() SpecDrawer { return SpecDrawer{} }

func (SpecDrawer) Draw(canvas string, spec ChartSpec) (Chart, error) {
	js, err := spec.JSON()
	if err != nil {
		return nil, err
	}
	return &SpecChart{Canvas: canvas, encoded: js}, nil
}
