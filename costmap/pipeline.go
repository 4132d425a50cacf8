package costmap

import (
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/merlinwwu/neonavigation/spatial"
)

// OverlaySpec configures one overlay layer at pipeline construction.
type OverlaySpec struct {
	Name string
	Mode OverlayMode
}

// Pipeline is the ordered chain [root, overlay_1, ..., overlay_k, output]
// described in spec.md §4.3. All state mutation happens behind a single
// mutex, per the concurrency model's "guard tracker/pipeline state with
// one recursive mutex" — Go has no recursive mutex, so Pipeline never
// calls one of its own locking methods while already holding the lock.
type Pipeline struct {
	mu sync.Mutex

	angle        int
	linearExpand float64
	linearSpread float64
	footprint    spatial.Polygon
	template     FootprintTemplate

	root     *Layer
	overlays map[string]*Layer
	output   *OutputLayer

	logger golog.Logger

	haveBaseMap bool
}

// NewPipeline constructs the layer chain. angle must be positive and
// footprint non-empty, per the configuration-fatal rules in spec.md §7.
func NewPipeline(angle int, linearExpand, linearSpread float64, footprint spatial.Polygon, overlays []OverlaySpec, logger golog.Logger, reg prometheus.Registerer) (*Pipeline, error) {
	if angle <= 0 {
		return nil, errors.New("ang_resolution must be positive")
	}
	if len(footprint.Vertices) == 0 {
		return nil, errors.New("footprint polygon must not be empty")
	}

	p := &Pipeline{
		angle: angle, linearExpand: linearExpand, linearSpread: linearSpread,
		footprint: footprint, logger: logger,
		overlays: make(map[string]*Layer),
	}
	p.template = BuildFootprintTemplate(footprint, angle, resolutionHint, linearExpand, linearSpread)

	// ReceiveBaseMap rebuilds the template whenever a base map's
	// resolution differs from the template's; resolutionHint is only used
	// to size the initial placeholder deterministically.
	root := NewLayer("root", OverlayMax, p.template, nil, logger, reg)
	p.root = root

	var tail link = root
	for _, spec := range overlays {
		l := NewLayer(spec.Name, spec.Mode, p.template, tail, logger, reg)
		if prev, ok := tail.(*Layer); ok {
			prev.setNext(l)
		}
		p.overlays[spec.Name] = l
		tail = l
	}
	output := NewOutputLayer(tail, reg)
	if prev, ok := tail.(*Layer); ok {
		prev.setNext(output)
	}
	p.output = output

	return p, nil
}

// NewPipelineFromConfig validates cfg and builds a Pipeline from it, one
// overlay layer per name in cfg.Overlays sharing cfg.OverlayMode.
func NewPipelineFromConfig(cfg Config, logger golog.Logger, reg prometheus.Registerer) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := ParseOverlayMode(cfg.OverlayMode)
	if err != nil {
		return nil, err
	}
	points := make([][2]float64, len(cfg.Footprint))
	for i, v := range cfg.Footprint {
		points[i] = [2]float64{v.X, v.Y}
	}
	footprint := spatial.NewPolygon(points)

	specs := make([]OverlaySpec, len(cfg.Overlays))
	for i, name := range cfg.Overlays {
		specs[i] = OverlaySpec{Name: name, Mode: mode}
	}
	return NewPipeline(cfg.AngResolution, cfg.LinearExpand, cfg.LinearSpread, footprint, specs, logger, reg)
}

// resolutionHint is a placeholder linear resolution used only to size the
// template before the first real occupancy grid (and its true
// resolution) is known; ReceiveBaseMap recomputes the template whenever
// a base map arrives at a different resolution.
const resolutionHint = 0.05

// ReceiveBaseMap routes a base map event to the root layer and returns
// the full output snapshot. Non-fatal errors (degenerate grid) are
// returned without mutating pipeline state.
func (p *Pipeline) ReceiveBaseMap(occ *OccupancyGrid2D) (*CSpace3D, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := occ.Validate(); err != nil {
		p.logger.Warnw("rejected degenerate base map", "error", err)
		return nil, err
	}
	if occ.Resolution != p.template.LinearRes {
		p.template = BuildFootprintTemplate(p.footprint, p.angle, occ.Resolution, p.linearExpand, p.linearSpread)
		p.root.template = p.template
		for _, l := range p.overlays {
			l.template = p.template
		}
	}
	if err := p.root.setBaseMap(occ); err != nil {
		return nil, err
	}
	p.haveBaseMap = true
	return p.output.getMap(), nil
}

// ReceiveOverlay routes an overlay event to the named overlay layer and
// returns the incremental update. Overlays before a base map, on a
// mismatched frame, or naming an unknown layer are rejected without
// disturbing prior state.
func (p *Pipeline) ReceiveOverlay(layerName string, occ *OccupancyGrid2D) (CSpace3DUpdate, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.haveBaseMap {
		p.logger.Warn("dropped overlay: no base map received yet")
		return CSpace3DUpdate{}, errors.New("overlay before base map")
	}
	l, ok := p.overlays[layerName]
	if !ok {
		return CSpace3DUpdate{}, errors.Errorf("unknown overlay layer %q", layerName)
	}
	update, err := l.processMapOverlay(occ)
	if err != nil {
		p.logger.Warnw("rejected overlay", "layer", layerName, "error", err)
		return CSpace3DUpdate{}, err
	}
	return update, nil
}

// GetMap returns the current full CSpace3D snapshot from the output
// layer.
func (p *Pipeline) GetMap() *CSpace3D {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.output.getMap()
}

// Footprint returns the configured robot footprint polygon, for the
// periodic footprint output named in spec.md §6.
func (p *Pipeline) Footprint() spatial.Polygon {
	return p.footprint
}

// DebugPointCloud returns one point (x, y, a*0.1) per output cell with
// cost >= Lethal, per the visualization Design Note in spec.md §9. Units
// are meters; the z lift is purely diagnostic.
func (p *Pipeline) DebugPointCloud() []spatial.Point2D3 {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.output.getMap()
	if c == nil {
		return nil
	}
	var pts []spatial.Point2D3
	for a := 0; a < c.Angle; a++ {
		z := float64(a) * 0.1
		for gy := 0; gy < c.Height; gy++ {
			for gx := 0; gx < c.Width; gx++ {
				if c.At(gx, gy, a) < Lethal {
					continue
				}
				w := c.Origin.Pos.Add(spatial.NewPoint2D(float64(gx)*c.LinearRes, float64(gy)*c.LinearRes))
				pts = append(pts, spatial.Point2D3{Point2D: w, Z: z})
			}
		}
	}
	return pts
}
