// Package annotations stores view-layer state that has no place in the
// topology document: canvas positions, icons, free text, free shapes and
// group styling. Annotations live in a sidecar store so a topology file
// edited by hand never accumulates presentation noise.
//
// Three backends are provided:
//   - file: JSON sidecar next to the topology file, the default
//   - redis: shared store for multi-instance deployments
//   - mongo: durable store when a document database is already around
package annotations

import (
	"context"

	"github.com/matzehuels/topolab/pkg/topology"
)

// GeoCoordinates pins a node to a map location for geo layouts.
type GeoCoordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// NodeAnnotation carries per-node presentation state.
type NodeAnnotation struct {
	ID            string             `json:"id" bson:"id"`
	Position      *topology.Position `json:"position,omitempty" bson:"position,omitempty"`
	Icon          string             `json:"icon,omitempty" bson:"icon,omitempty"`
	Group         string             `json:"group,omitempty" bson:"group,omitempty"`
	GroupLevel    int                `json:"groupLevel,omitempty" bson:"group_level,omitempty"`
	GroupLabelPos string             `json:"groupLabelPos,omitempty" bson:"group_label_pos,omitempty"`
	Geo           *GeoCoordinates    `json:"geoCoordinates,omitempty" bson:"geo_coordinates,omitempty"`
}

// FreeTextAnnotation is a floating text element on the canvas.
type FreeTextAnnotation struct {
	ID        string            `json:"id" bson:"id"`
	Text      string            `json:"text" bson:"text"`
	Position  topology.Position `json:"position" bson:"position"`
	FontSize  int               `json:"fontSize,omitempty" bson:"font_size,omitempty"`
	FontColor string            `json:"fontColor,omitempty" bson:"font_color,omitempty"`
	BgColor   string            `json:"bgColor,omitempty" bson:"bg_color,omitempty"`
	Bold      bool              `json:"bold,omitempty" bson:"bold,omitempty"`
	Italic    bool              `json:"italic,omitempty" bson:"italic,omitempty"`
}

// FreeShapeAnnotation is a drawn shape on the canvas.
type FreeShapeAnnotation struct {
	ID          string            `json:"id" bson:"id"`
	Shape       string            `json:"shape" bson:"shape"` // rectangle, ellipse, line
	Position    topology.Position `json:"position" bson:"position"`
	Width       float64           `json:"width,omitempty" bson:"width,omitempty"`
	Height      float64           `json:"height,omitempty" bson:"height,omitempty"`
	FillColor   string            `json:"fillColor,omitempty" bson:"fill_color,omitempty"`
	BorderColor string            `json:"borderColor,omitempty" bson:"border_color,omitempty"`
	BorderWidth float64           `json:"borderWidth,omitempty" bson:"border_width,omitempty"`
	Rotation    float64           `json:"rotation,omitempty" bson:"rotation,omitempty"`
}

// GroupStyleAnnotation styles one "<group>:<level>" pseudo-node.
type GroupStyleAnnotation struct {
	ID          string  `json:"id" bson:"id"`
	BgColor     string  `json:"bgColor,omitempty" bson:"bg_color,omitempty"`
	BorderColor string  `json:"borderColor,omitempty" bson:"border_color,omitempty"`
	BorderWidth float64 `json:"borderWidth,omitempty" bson:"border_width,omitempty"`
	BorderStyle string  `json:"borderStyle,omitempty" bson:"border_style,omitempty"`
	LabelPos    string  `json:"labelPos,omitempty" bson:"label_pos,omitempty"`
}

// Set is everything the store holds for one topology.
type Set struct {
	Nodes       []NodeAnnotation       `json:"nodeAnnotations,omitempty" bson:"node_annotations,omitempty"`
	Texts       []FreeTextAnnotation   `json:"freeTextAnnotations,omitempty" bson:"free_text_annotations,omitempty"`
	Shapes      []FreeShapeAnnotation  `json:"freeShapeAnnotations,omitempty" bson:"free_shape_annotations,omitempty"`
	GroupStyles []GroupStyleAnnotation `json:"groupStyleAnnotations,omitempty" bson:"group_style_annotations,omitempty"`
}

// Positions extracts the stored node positions, the form the graph builder
// consumes for nodes without a document position.
func (s *Set) Positions() map[string]topology.Position {
	if s == nil {
		return nil
	}
	out := map[string]topology.Position{}
	for _, n := range s.Nodes {
		if n.Position != nil {
			out[n.ID] = *n.Position
		}
	}
	return out
}

// Prune drops node annotations whose node no longer exists in the
// topology. Free text, shapes and group styles are kept; they are not
// bound to document nodes.
func (s *Set) Prune(topo *topology.Topology) {
	if s == nil || topo == nil {
		return
	}
	kept := s.Nodes[:0]
	for _, n := range s.Nodes {
		if _, ok := topo.Nodes[n.ID]; ok {
			kept = append(kept, n)
		}
	}
	s.Nodes = kept
}

// Store is the interface annotation backends implement. Load returns an
// empty set, never nil, when nothing is stored yet. Close releases
// resources the store owns; it is a no-op for backends over shared
// connections.
type Store interface {
	Load(ctx context.Context) (*Set, error)
	Save(ctx context.Context, set *Set) error
	Close() error
}
