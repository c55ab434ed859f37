package model

// Core domain types for the vessel routing planner.

// Raw inputs as accepted at the API boundary. Names are free text and are
// resolved against the Location collection during normalization.

type LocationIn struct {
	Name     string      `json:"name"`
	Category string      `json:"category"` // port | platform
	X        float64     `json:"x"`        // projected easting, meters
	Y        float64     `json:"y"`        // projected northing, meters
	Closures []ClosureIn `json:"closures,omitempty"`
}

// ClosureIn is an unavailability interval in minutes from the start of the
// planning horizon. A nil bound leaves that side open.
type ClosureIn struct {
	Start *int64 `json:"start,omitempty"`
	End   *int64 `json:"end,omitempty"`
}

type ItemIn struct {
	Name     string  `json:"name"`
	Pickup   string  `json:"pickup"`
	Delivery string  `json:"delivery"`
	Weight   float64 `json:"weight"`
	Lifts    *int64  `json:"lifts,omitempty"`
}

type VesselIn struct {
	Name     string  `json:"name"`
	Capacity float64 `json:"capacity"`
	SpeedKn  float64 `json:"speedKn"`
	Start    string  `json:"start,omitempty"`
	End      string  `json:"end,omitempty"`
}

// Normalized entities. Location references are indices into the normalized
// Location slice; these views are immutable once produced.

type Location struct {
	Name     string
	Category string
	X, Y     float64
	Closures []Closure
}

type Closure struct {
	Start *int64
	End   *int64
}

type Item struct {
	Name     string
	Pickup   int
	Delivery int
	Weight   int64
	Lifts    int64
}

type Vessel struct {
	Name        string
	Capacity    int64
	SpeedKn     float64
	UnitsPerMin float64 // distance units per minute, derived from SpeedKn
	Start       int     // location index, -1 when defaulting to the depot
	End         int
}

// Node roles in the virtual routing graph.
const (
	RoleDepot    = "depot"
	RoleStart    = "vessel-start"
	RoleEnd      = "vessel-end"
	RolePickup   = "pickup"
	RoleDelivery = "delivery"
)

// VirtualNode is one synthetic graph node: the depot, a vessel endpoint, or
// one side of an item movement. Index assignment is owned by the graph
// builder and stable across matrices and solve results.
type VirtualNode struct {
	Index    int
	Role     string
	Location int   // backing real location index
	Item     int   // owning item index, -1 for depot/endpoint nodes
	Service  int64 // minutes spent at the node
	Demand   int64 // +weight at pickup, -weight at delivery, 0 elsewhere
}

// RouteLeg is one arc of a solved route. Legs are reporting artifacts and
// are never mutated once built. All numeric fields are integers in the
// configured distance/time units.
type RouteLeg struct {
	Vessel       string `json:"vessel"`
	Leg          int    `json:"leg"`
	FromNode     int    `json:"fromNode"`
	ToNode       int    `json:"toNode"`
	FromLocation string `json:"fromLocation"`
	ToLocation   string `json:"toLocation"`
	Action       string `json:"action"` // load | unload | none
	Item         string `json:"item,omitempty"`
	WeightDelta  int64  `json:"weightDelta"`
	LiftsDelta   int64  `json:"liftsDelta"`
	FromTime     int64  `json:"fromTime"`
	ToTime       int64  `json:"toTime"`
	Distance     int64  `json:"distance"`
	Elapsed      int64  `json:"elapsed"`
}

// VesselRoute groups the ordered legs of one vessel with its totals.
type VesselRoute struct {
	Vessel        string     `json:"vessel"`
	Legs          []RouteLeg `json:"legs"`
	TotalTime     int64      `json:"totalTime"`
	TotalDistance int64      `json:"totalDistance"`
}

type DroppedItem struct {
	Item     string `json:"item"`
	Pickup   string `json:"pickup"`
	Delivery string `json:"delivery"`
}

// Plan is the persisted outcome of one solve invocation.
type Plan struct {
	ID            string        `json:"id,omitempty"`
	CreatedAt     string        `json:"createdAt,omitempty"`
	Objective     int64         `json:"objective"`
	Routes        []VesselRoute `json:"routes"`
	Dropped       []DroppedItem `json:"dropped,omitempty"`
	TotalTime     int64         `json:"totalTime"`
	TotalDistance int64         `json:"totalDistance"`
}

// PlanRequest carries one routing problem plus optional search overrides.
type PlanRequest struct {
	Locations []LocationIn `json:"locations"`
	Items     []ItemIn     `json:"items"`
	Vessels   []VesselIn   `json:"vessels"`
	Search    *SearchIn    `json:"search,omitempty"`
}

type SearchIn struct {
	TimeBudgetMs  int   `json:"timeBudgetMs,omitempty"`
	SolutionLimit int   `json:"solutionLimit,omitempty"`
	Seed          int64 `json:"seed,omitempty"`
	LogSearch     bool  `json:"logSearch,omitempty"`
}

// PlanSummary is the list-view projection of a stored Plan.
type PlanSummary struct {
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt"`
	Objective int64  `json:"objective"`
	Vessels   int    `json:"vessels"`
	Dropped   int    `json:"dropped"`
}
