package equipment

import (
	"time"

	errors "github.com/frahmantamala/power-data-portal/internal"
)

// Kind is the tag of an equipment type. The set is closed; every value is
// registered in kinds below.
type Kind string

const (
	KindBus               Kind = "bus"
	KindGenerator         Kind = "generator"
	KindLoad              Kind = "load"
	KindShuntCapacitor    Kind = "shunt-capacitor"
	KindSeriesCapacitor   Kind = "series-capacitor"
	KindReactor           Kind = "reactor"
	KindTransformer2W     Kind = "transformer-2w"
	KindTransformer3W     Kind = "transformer-3w"
	KindTransmissionLine  Kind = "transmission-line"
	KindIBR               Kind = "ibr"
	KindLCC               Kind = "lcc"
	KindVSC               Kind = "vsc"
	KindSingleLineDiagram Kind = "single-line-diagram"
	KindTurbine           Kind = "turbine"
	KindExcitationSystem  Kind = "excitation-system"
)

// Record is implemented by every equipment struct.
type Record interface {
	Meta() *Base
	Validate() error
	// Title is the human name used in history details.
	Title() string
}

// Base holds the bookkeeping columns shared by every equipment table.
type Base struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	CreatedBy string    `json:"createdBy" gorm:"column:created_by"`
	CreatedAt time.Time `json:"createdAt" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"column:updated_at;autoUpdateTime"`
}

func (b *Base) Meta() *Base { return b }

// Descriptor describes one equipment kind.
type Descriptor struct {
	Kind   Kind
	Label  string
	Plural string
	new    func() Record
}

// New returns a zero record of the descriptor's kind.
func (d Descriptor) New() Record {
	return d.new()
}

var kinds = []Descriptor{
	{Kind: KindBus, Label: "Bus", Plural: "buses", new: func() Record { return &Bus{} }},
	{Kind: KindGenerator, Label: "Generator", Plural: "generators", new: func() Record { return &Generator{} }},
	{Kind: KindLoad, Label: "Load", Plural: "loads", new: func() Record { return &Load{} }},
	{Kind: KindShuntCapacitor, Label: "Shunt capacitor", Plural: "shunt capacitors", new: func() Record { return &ShuntCapacitor{} }},
	{Kind: KindSeriesCapacitor, Label: "Series capacitor", Plural: "series capacitors", new: func() Record { return &SeriesCapacitor{} }},
	{Kind: KindReactor, Label: "Reactor", Plural: "reactors", new: func() Record { return &Reactor{} }},
	{Kind: KindTransformer2W, Label: "Two-winding transformer", Plural: "two-winding transformers", new: func() Record { return &TwoWindingTransformer{} }},
	{Kind: KindTransformer3W, Label: "Three-winding transformer", Plural: "three-winding transformers", new: func() Record { return &ThreeWindingTransformer{} }},
	{Kind: KindTransmissionLine, Label: "Transmission line", Plural: "transmission lines", new: func() Record { return &TransmissionLine{} }},
	{Kind: KindIBR, Label: "IBR", Plural: "IBRs", new: func() Record { return &IBR{} }},
	{Kind: KindLCC, Label: "LCC link", Plural: "LCC links", new: func() Record { return &LCC{} }},
	{Kind: KindVSC, Label: "VSC link", Plural: "VSC links", new: func() Record { return &VSC{} }},
	{Kind: KindSingleLineDiagram, Label: "Single line diagram", Plural: "single line diagrams", new: func() Record { return &SingleLineDiagram{} }},
	{Kind: KindTurbine, Label: "Turbine", Plural: "turbines", new: func() Record { return &Turbine{} }},
	{Kind: KindExcitationSystem, Label: "Excitation system", Plural: "excitation systems", new: func() Record { return &ExcitationSystem{} }},
}

var kindIndex = func() map[Kind]Descriptor {
	m := make(map[Kind]Descriptor, len(kinds))
	for _, d := range kinds {
		m[d.Kind] = d
	}
	return m
}()

// Lookup resolves a data type tag to its descriptor.
func Lookup(tag string) (Descriptor, error) {
	d, ok := kindIndex[Kind(tag)]
	if !ok {
		return Descriptor{}, errors.ErrUnknownDataType.WithMessage("Unknown data type: " + tag)
	}
	return d, nil
}

// MustLookup is Lookup for compile-time constants.
func MustLookup(k Kind) Descriptor {
	d, err := Lookup(string(k))
	if err != nil {
		panic(err)
	}
	return d
}

// All returns every registered descriptor in a stable order.
func All() []Descriptor {
	out := make([]Descriptor, len(kinds))
	copy(out, kinds)
	return out
}
