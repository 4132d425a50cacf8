package costmap

import (
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// OverlayMode is how a layer combines its own stamped cost against the
// value it receives from upstream.
type OverlayMode int

const (
	// OverlayOverwrite replaces a touched cell with
	// max(template_cost, upstream_cost), discarding whatever this layer
	// had contributed there before.
	OverlayOverwrite OverlayMode = iota
	// OverlayMax keeps max(existing_in_this_layer, template_cost),
	// accumulating overlay contributions across successive events.
	OverlayMax
)

// ParseOverlayMode parses the startup configuration string form.
func ParseOverlayMode(s string) (OverlayMode, error) {
	switch s {
	case "overwrite":
		return OverlayOverwrite, nil
	case "max":
		return OverlayMax, nil
	default:
		return 0, errors.Errorf("unknown overlay mode %q", s)
	}
}

// link is the capability every element of the pipeline chain exposes.
// Tagging the footprint layer and the terminal output as two
// implementations of the same interface avoids a base class, per the
// Design Note calling for "tagged variants rather than deep inheritance".
type link interface {
	setBaseMap(occ *OccupancyGrid2D) error
	processMapOverlay(occ *OccupancyGrid2D) (CSpace3DUpdate, error)
	getMap() *CSpace3D
	forward(update CSpace3DUpdate)
}

// Layer owns one layer of the 3D cost volume. It stamps a 2D occupancy
// grid into its own buffer using a FootprintTemplate, combining against
// its upstream neighbor's buffer according to its OverlayMode, and
// forwards incremental updates downstream.
type Layer struct {
	name     string
	mode     OverlayMode
	template FootprintTemplate
	upstream link // predecessor in the chain; nil for the root layer
	next     link // successor: another Layer or the OutputLayer
	logger   golog.Logger

	volume  *CSpace3D
	baseMap *OccupancyGrid2D

	stampDuration prometheus.Histogram
}

// NewLayer constructs a Layer stamping with tpl, combining with mode
// against upstream (nil for the root layer of the pipeline), and
// forwarding results to next.
func NewLayer(name string, mode OverlayMode, tpl FootprintTemplate, upstream link, logger golog.Logger, reg prometheus.Registerer) *Layer {
	hist := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "costmap_layer_stamp_seconds",
		Help:        "Duration of a single stamp operation on a costmap layer.",
		ConstLabels: prometheus.Labels{"layer": name},
		Buckets:     prometheus.DefBuckets,
	})
	maxCost := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "costmap_layer_template_max_cost",
		Help:        "Largest cost carried by this layer's footprint template across all yaw bins.",
		ConstLabels: prometheus.Labels{"layer": name},
	})
	maxCost.Set(float64(tpl.MaxCost()))
	if reg != nil {
		reg.MustRegister(hist)
		reg.MustRegister(maxCost)
	}
	return &Layer{name: name, mode: mode, template: tpl, upstream: upstream, logger: logger, stampDuration: hist}
}

// setNext wires this layer's downstream forwarding target; called once by
// Pipeline construction after every layer exists.
func (l *Layer) setNext(next link) {
	l.next = next
}

// setBaseMap allocates this layer's buffer to occ's extent. The root
// layer (upstream == nil) stamps occ's lethal cells directly; every other
// layer starts as a clone of its upstream's freshly stamped volume,
// which is what "clears downstream caches" means here: any overlay
// contribution accumulated before this base map is discarded.
func (l *Layer) setBaseMap(occ *OccupancyGrid2D) error {
	if err := occ.Validate(); err != nil {
		return err
	}
	start := time.Now()
	l.baseMap = occ

	if l.upstream == nil {
		l.volume = NewCSpace3D(occ.Width, occ.Height, l.template.Angle, occ.Resolution, occ.Origin)
		// Known cells start Free in every yaw bin; Unknown cells stay Unknown.
		for gy := 0; gy < occ.Height; gy++ {
			for gx := 0; gx < occ.Width; gx++ {
				if occ.At(gx, gy) == Unknown {
					continue
				}
				for a := 0; a < l.volume.Angle; a++ {
					l.volume.Set(gx, gy, a, Free)
				}
			}
		}
		for gy := 0; gy < occ.Height; gy++ {
			for gx := 0; gx < occ.Width; gx++ {
				if occ.At(gx, gy) != Lethal {
					continue
				}
				l.stampMax(gx, gy)
			}
		}
	} else {
		l.volume = l.upstream.getMap().Clone()
	}
	if l.stampDuration != nil {
		l.stampDuration.Observe(time.Since(start).Seconds())
	}
	return l.next.setBaseMap(occ)
}

// stampMax stamps the template centered at (gx, gy) into l.volume using
// max-combining against whatever is already there — the rule the root
// layer always uses when laying down the base map, independent of the
// pipeline-wide OverlayMode (which only governs overlay combination).
func (l *Layer) stampMax(gx, gy int) {
	for a, cells := range l.template.Cells {
		for _, tc := range cells {
			x, y := gx+tc.DX, gy+tc.DY
			if !l.volume.InBounds(x, y, a) {
				continue
			}
			if cur := l.volume.At(x, y, a); tc.Cost > cur {
				l.volume.Set(x, y, a, tc.Cost)
			}
		}
	}
}

// processMapOverlay stamps overlay's lethal cells into this layer's own
// buffer using its configured OverlayMode, and forwards the minimal
// bounding-box update downstream. occ must share frame, resolution and
// origin with the base map already received; overlays before a base map,
// or on a mismatched frame, are rejected.
func (l *Layer) processMapOverlay(occ *OccupancyGrid2D) (CSpace3DUpdate, error) {
	if l.baseMap == nil {
		return CSpace3DUpdate{}, errors.New("overlay received before base map")
	}
	if !occ.SameFrame(l.baseMap) {
		return CSpace3DUpdate{}, errors.Errorf("overlay frame/resolution/origin does not match base map (frame %q)", occ.Frame)
	}
	if err := occ.Validate(); err != nil {
		return CSpace3DUpdate{}, err
	}
	start := time.Now()

	var upstreamVolume *CSpace3D
	if l.upstream != nil {
		upstreamVolume = l.upstream.getMap()
	}
	box := BBox{}
	for gy := 0; gy < occ.Height; gy++ {
		for gx := 0; gx < occ.Width; gx++ {
			if occ.At(gx, gy) != Lethal {
				continue
			}
			box = Union(box, l.stampOverlayCell(gx, gy, upstreamVolume))
		}
	}
	if l.stampDuration != nil {
		l.stampDuration.Observe(time.Since(start).Seconds())
	}
	update := ExtractUpdate(l.volume, box.Clamp(l.volume))
	l.next.forward(update)
	return update, nil
}

// stampOverlayCell applies the layer's OverlayMode at a single lethal
// overlay cell and returns the bounding box (expanded by the template
// radius) it touched.
func (l *Layer) stampOverlayCell(gx, gy int, upstream *CSpace3D) BBox {
	touched := BBox{}
	for a, cells := range l.template.Cells {
		for _, tc := range cells {
			x, y := gx+tc.DX, gy+tc.DY
			if !l.volume.InBounds(x, y, a) {
				continue
			}
			var newVal int8
			switch l.mode {
			case OverlayOverwrite:
				var up int8
				if upstream != nil {
					up = upstream.At(x, y, a)
				}
				newVal = maxInt8(tc.Cost, up)
			case OverlayMax:
				newVal = maxInt8(l.volume.At(x, y, a), tc.Cost)
			}
			l.volume.Set(x, y, a, newVal)
			touched = Union(touched, BBox{X0: x, Y0: y, Yaw0: a, W: 1, H: 1, AYaw: 1})
		}
	}
	if !touched.Empty() {
		r := l.template.Radius
		touched.X0 -= r
		touched.Y0 -= r
		touched.W += 2 * r
		touched.H += 2 * r
	}
	return touched
}

// getMap returns the current CSpace3D snapshot.
func (l *Layer) getMap() *CSpace3D {
	return l.volume
}

// forward relays an update received from an upstream layer to l.next
// unchanged. A layer's own updates are pushed to l.next directly from
// processMapOverlay; forward does not modify l.volume.
func (l *Layer) forward(update CSpace3DUpdate) {
	l.next.forward(update)
}

func maxInt8(a, b int8) int8 {
	if a > b {
		return a
	}
	return b
}

// OutputLayer is the terminal link in the pipeline chain. It holds no
// buffer of its own: getMap delegates to its upstream neighbor, and it
// only tracks the most recent update patch for republication.
type OutputLayer struct {
	upstream     link
	lastUpdate   CSpace3DUpdate
	updatesTotal prometheus.Counter
}

// NewOutputLayer constructs an OutputLayer reading from upstream.
func NewOutputLayer(upstream link, reg prometheus.Registerer) *OutputLayer {
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "costmap_output_updates_total",
		Help: "Number of incremental updates published by the costmap output layer.",
	})
	if reg != nil {
		reg.MustRegister(counter)
	}
	return &OutputLayer{upstream: upstream, updatesTotal: counter}
}

func (o *OutputLayer) setBaseMap(occ *OccupancyGrid2D) error {
	return nil
}

func (o *OutputLayer) processMapOverlay(occ *OccupancyGrid2D) (CSpace3DUpdate, error) {
	return CSpace3DUpdate{}, errors.New("output layer does not accept overlays directly")
}

func (o *OutputLayer) getMap() *CSpace3D {
	return o.upstream.getMap()
}

func (o *OutputLayer) forward(update CSpace3DUpdate) {
	o.lastUpdate = update
	if o.updatesTotal != nil {
		o.updatesTotal.Inc()
	}
}

// LastUpdate returns the most recent update forwarded to the output.
func (o *OutputLayer) LastUpdate() CSpace3DUpdate {
	return o.lastUpdate
}
