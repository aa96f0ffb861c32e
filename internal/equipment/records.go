package equipment

import (
	"github.com/frahmantamala/power-data-portal/internal/core/common/validation"
)

// Required electrical ratings are kept as entered (strings); optional
// measurements are numbers.

type Bus struct {
	Base
	BusName      string  `json:"busName" gorm:"column:bus_name"`
	Location     string  `json:"location" gorm:"column:location"`
	VoltagePower string  `json:"voltagePower" gorm:"column:voltage_power"`
	NominalKV    string  `json:"nominalKV" gorm:"column:nominal_kv"`
	BusType      string  `json:"busType" gorm:"column:bus_type"`
	Area         string  `json:"area" gorm:"column:area"`
	Zone         string  `json:"zone" gorm:"column:zone"`
	Description  string  `json:"description" gorm:"column:description"`
	ImageURL     *string `json:"imageUrl" gorm:"column:image_url"`
}

func (Bus) TableName() string {
	return "buses"
}

func (b *Bus) Title() string {
	return b.BusName
}

func (b *Bus) Validate() error {
	v := validation.NewValidator()
	v.Field("busName", b.BusName).Required().MaxLength(255)
	v.Field("location", b.Location).Required()
	v.Field("voltagePower", b.VoltagePower).Required()
	v.Field("nominalKV", b.NominalKV).Required()
	v.Field("busType", b.BusType).OneOf("slack", "pv", "pq")
	return v.Check()
}

type Generator struct {
	Base
	GeneratorName        string   `json:"generatorName" gorm:"column:generator_name"`
	BusName              string   `json:"busName" gorm:"column:bus_name"`
	Location             string   `json:"location" gorm:"column:location"`
	RatedMVA             string   `json:"ratedMVA" gorm:"column:rated_mva"`
	RatedKV              string   `json:"ratedKV" gorm:"column:rated_kv"`
	ActivePowerMW        *float64 `json:"activePowerMW" gorm:"column:active_power_mw"`
	ReactivePowerMaxMVAR *float64 `json:"reactivePowerMaxMVAR" gorm:"column:reactive_power_max_mvar"`
	ReactivePowerMinMVAR *float64 `json:"reactivePowerMinMVAR" gorm:"column:reactive_power_min_mvar"`
	FuelType             string   `json:"fuelType" gorm:"column:fuel_type"`
	InService            bool     `json:"inService" gorm:"column:in_service"`
	ImageURL             *string  `json:"imageUrl" gorm:"column:image_url"`
}

func (Generator) TableName() string {
	return "generators"
}

func (g *Generator) Title() string {
	return g.GeneratorName
}

func (g *Generator) Validate() error {
	v := validation.NewValidator()
	v.Field("generatorName", g.GeneratorName).Required().MaxLength(255)
	v.Field("busName", g.BusName).Required()
	v.Field("ratedMVA", g.RatedMVA).Required()
	v.Field("ratedKV", g.RatedKV).Required()
	v.Field("activePowerMW", g.ActivePowerMW).NonNegative()
	return v.Check()
}

type Load struct {
	Base
	LoadName          string  `json:"loadName" gorm:"column:load_name"`
	BusName           string  `json:"busName" gorm:"column:bus_name"`
	Location          string  `json:"location" gorm:"column:location"`
	ActivePowerMW     string  `json:"activePowerMW" gorm:"column:active_power_mw"`
	ReactivePowerMVAR string  `json:"reactivePowerMVAR" gorm:"column:reactive_power_mvar"`
	LoadType          string  `json:"loadType" gorm:"column:load_type"`
	InService         bool    `json:"inService" gorm:"column:in_service"`
	ImageURL          *string `json:"imageUrl" gorm:"column:image_url"`
}

func (Load) TableName() string {
	return "loads"
}

func (l *Load) Title() string {
	return l.LoadName
}

func (l *Load) Validate() error {
	v := validation.NewValidator()
	v.Field("loadName", l.LoadName).Required().MaxLength(255)
	v.Field("busName", l.BusName).Required()
	v.Field("activePowerMW", l.ActivePowerMW).Required()
	v.Field("reactivePowerMVAR", l.ReactivePowerMVAR).Required()
	v.Field("loadType", l.LoadType).OneOf("constant-power", "constant-current", "constant-impedance", "motor")
	return v.Check()
}

type ShuntCapacitor struct {
	Base
	CapacitorName string  `json:"capacitorName" gorm:"column:capacitor_name"`
	BusName       string  `json:"busName" gorm:"column:bus_name"`
	Location      string  `json:"location" gorm:"column:location"`
	RatedMVAR     string  `json:"ratedMVAR" gorm:"column:rated_mvar"`
	RatedKV       string  `json:"ratedKV" gorm:"column:rated_kv"`
	NumberOfSteps int     `json:"numberOfSteps" gorm:"column:number_of_steps"`
	InService     bool    `json:"inService" gorm:"column:in_service"`
	ImageURL      *string `json:"imageUrl" gorm:"column:image_url"`
}

func (ShuntCapacitor) TableName() string {
	return "shunt_capacitors"
}

func (c *ShuntCapacitor) Title() string {
	return c.CapacitorName
}

func (c *ShuntCapacitor) Validate() error {
	v := validation.NewValidator()
	v.Field("capacitorName", c.CapacitorName).Required().MaxLength(255)
	v.Field("busName", c.BusName).Required()
	v.Field("ratedMVAR", c.RatedMVAR).Required()
	v.Field("ratedKV", c.RatedKV).Required()
	v.Field("numberOfSteps", c.NumberOfSteps).NonNegative()
	return v.Check()
}

type SeriesCapacitor struct {
	Base
	CapacitorName       string   `json:"capacitorName" gorm:"column:capacitor_name"`
	BusFrom             string   `json:"busFrom" gorm:"column:bus_from"`
	BusTo               string   `json:"busTo" gorm:"column:bus_to"`
	Location            string   `json:"location" gorm:"column:location"`
	ReactanceOhm        string   `json:"reactanceOhm" gorm:"column:reactance_ohm"`
	RatedCurrentA       *float64 `json:"ratedCurrentA" gorm:"column:rated_current_a"`
	CompensationPercent *float64 `json:"compensationPercent" gorm:"column:compensation_percent"`
	InService           bool     `json:"inService" gorm:"column:in_service"`
	ImageURL            *string  `json:"imageUrl" gorm:"column:image_url"`
}

func (SeriesCapacitor) TableName() string {
	return "series_capacitors"
}

func (c *SeriesCapacitor) Title() string {
	return c.CapacitorName
}

func (c *SeriesCapacitor) Validate() error {
	v := validation.NewValidator()
	v.Field("capacitorName", c.CapacitorName).Required().MaxLength(255)
	v.Field("busFrom", c.BusFrom).Required()
	v.Field("busTo", c.BusTo).Required()
	v.Field("reactanceOhm", c.ReactanceOhm).Required()
	v.Field("ratedCurrentA", c.RatedCurrentA).NonNegative()
	v.Field("compensationPercent", c.CompensationPercent).NonNegative()
	return v.Check()
}

type Reactor struct {
	Base
	ReactorName string  `json:"reactorName" gorm:"column:reactor_name"`
	BusName     string  `json:"busName" gorm:"column:bus_name"`
	Location    string  `json:"location" gorm:"column:location"`
	RatedMVAR   string  `json:"ratedMVAR" gorm:"column:rated_mvar"`
	RatedKV     string  `json:"ratedKV" gorm:"column:rated_kv"`
	ReactorType string  `json:"reactorType" gorm:"column:reactor_type"`
	InService   bool    `json:"inService" gorm:"column:in_service"`
	ImageURL    *string `json:"imageUrl" gorm:"column:image_url"`
}

func (Reactor) TableName() string {
	return "reactors"
}

func (r *Reactor) Title() string {
	return r.ReactorName
}

func (r *Reactor) Validate() error {
	v := validation.NewValidator()
	v.Field("reactorName", r.ReactorName).Required().MaxLength(255)
	v.Field("busName", r.BusName).Required()
	v.Field("ratedMVAR", r.RatedMVAR).Required()
	v.Field("ratedKV", r.RatedKV).Required()
	v.Field("reactorType", r.ReactorType).OneOf("shunt", "series")
	return v.Check()
}

type TwoWindingTransformer struct {
	Base
	TransformerName  string   `json:"transformerName" gorm:"column:transformer_name"`
	BusFrom          string   `json:"busFrom" gorm:"column:bus_from"`
	BusTo            string   `json:"busTo" gorm:"column:bus_to"`
	Location         string   `json:"location" gorm:"column:location"`
	RatedMVA         string   `json:"ratedMVA" gorm:"column:rated_mva"`
	PrimaryKV        string   `json:"primaryKV" gorm:"column:primary_kv"`
	SecondaryKV      string   `json:"secondaryKV" gorm:"column:secondary_kv"`
	ImpedancePercent *float64 `json:"impedancePercent" gorm:"column:impedance_percent"`
	VectorGroup      string   `json:"vectorGroup" gorm:"column:vector_group"`
	TapChanger       string   `json:"tapChanger" gorm:"column:tap_changer"`
	InService        bool     `json:"inService" gorm:"column:in_service"`
	ImageURL         *string  `json:"imageUrl" gorm:"column:image_url"`
}

func (TwoWindingTransformer) TableName() string {
	return "transformers_2w"
}

func (t *TwoWindingTransformer) Title() string {
	return t.TransformerName
}

func (t *TwoWindingTransformer) Validate() error {
	v := validation.NewValidator()
	v.Field("transformerName", t.TransformerName).Required().MaxLength(255)
	v.Field("busFrom", t.BusFrom).Required()
	v.Field("busTo", t.BusTo).Required()
	v.Field("ratedMVA", t.RatedMVA).Required()
	v.Field("primaryKV", t.PrimaryKV).Required()
	v.Field("secondaryKV", t.SecondaryKV).Required()
	v.Field("impedancePercent", t.ImpedancePercent).NonNegative()
	v.Field("tapChanger", t.TapChanger).OneOf("none", "oltc", "offload")
	return v.Check()
}

type ThreeWindingTransformer struct {
	Base
	TransformerName string  `json:"transformerName" gorm:"column:transformer_name"`
	BusPrimary      string  `json:"busPrimary" gorm:"column:bus_primary"`
	BusSecondary    string  `json:"busSecondary" gorm:"column:bus_secondary"`
	BusTertiary     string  `json:"busTertiary" gorm:"column:bus_tertiary"`
	Location        string  `json:"location" gorm:"column:location"`
	RatedMVA        string  `json:"ratedMVA" gorm:"column:rated_mva"`
	PrimaryKV       string  `json:"primaryKV" gorm:"column:primary_kv"`
	SecondaryKV     string  `json:"secondaryKV" gorm:"column:secondary_kv"`
	TertiaryKV      string  `json:"tertiaryKV" gorm:"column:tertiary_kv"`
	VectorGroup     string  `json:"vectorGroup" gorm:"column:vector_group"`
	InService       bool    `json:"inService" gorm:"column:in_service"`
	ImageURL        *string `json:"imageUrl" gorm:"column:image_url"`
}

func (ThreeWindingTransformer) TableName() string {
	return "transformers_3w"
}

func (t *ThreeWindingTransformer) Title() string {
	return t.TransformerName
}

func (t *ThreeWindingTransformer) Validate() error {
	v := validation.NewValidator()
	v.Field("transformerName", t.TransformerName).Required().MaxLength(255)
	v.Field("busPrimary", t.BusPrimary).Required()
	v.Field("busSecondary", t.BusSecondary).Required()
	v.Field("busTertiary", t.BusTertiary).Required()
	v.Field("ratedMVA", t.RatedMVA).Required()
	v.Field("primaryKV", t.PrimaryKV).Required()
	v.Field("secondaryKV", t.SecondaryKV).Required()
	v.Field("tertiaryKV", t.TertiaryKV).Required()
	return v.Check()
}

type TransmissionLine struct {
	Base
	LineName         string   `json:"lineName" gorm:"column:line_name"`
	BusFrom          string   `json:"busFrom" gorm:"column:bus_from"`
	BusTo            string   `json:"busTo" gorm:"column:bus_to"`
	VoltageKV        string   `json:"voltageKV" gorm:"column:voltage_kv"`
	LengthKm         string   `json:"lengthKm" gorm:"column:length_km"`
	ResistancePU     *float64 `json:"resistancePU" gorm:"column:resistance_pu"`
	ReactancePU      *float64 `json:"reactancePU" gorm:"column:reactance_pu"`
	SusceptancePU    *float64 `json:"susceptancePU" gorm:"column:susceptance_pu"`
	RatingMVA        *float64 `json:"ratingMVA" gorm:"column:rating_mva"`
	NumberOfCircuits int      `json:"numberOfCircuits" gorm:"column:number_of_circuits"`
	InService        bool     `json:"inService" gorm:"column:in_service"`
	ImageURL         *string  `json:"imageUrl" gorm:"column:image_url"`
}

func (TransmissionLine) TableName() string {
	return "transmission_lines"
}

func (l *TransmissionLine) Title() string {
	return l.LineName
}

func (l *TransmissionLine) Validate() error {
	v := validation.NewValidator()
	v.Field("lineName", l.LineName).Required().MaxLength(255)
	v.Field("busFrom", l.BusFrom).Required()
	v.Field("busTo", l.BusTo).Required()
	v.Field("voltageKV", l.VoltageKV).Required()
	v.Field("lengthKm", l.LengthKm).Required()
	v.Field("ratingMVA", l.RatingMVA).NonNegative()
	v.Field("numberOfCircuits", l.NumberOfCircuits).NonNegative()
	return v.Check()
}

// IBR is an inverter-based resource.
type IBR struct {
	Base
	IBRName       string   `json:"ibrName" gorm:"column:ibr_name"`
	BusName       string   `json:"busName" gorm:"column:bus_name"`
	Location      string   `json:"location" gorm:"column:location"`
	Technology    string   `json:"technology" gorm:"column:technology"`
	RatedMW       string   `json:"ratedMW" gorm:"column:rated_mw"`
	RatedMVA      *float64 `json:"ratedMVA" gorm:"column:rated_mva"`
	InverterModel string   `json:"inverterModel" gorm:"column:inverter_model"`
	GridForming   bool     `json:"gridForming" gorm:"column:grid_forming"`
	InService     bool     `json:"inService" gorm:"column:in_service"`
	ImageURL      *string  `json:"imageUrl" gorm:"column:image_url"`
}

func (IBR) TableName() string {
	return "ibrs"
}

func (i *IBR) Title() string {
	return i.IBRName
}

func (i *IBR) Validate() error {
	v := validation.NewValidator()
	v.Field("ibrName", i.IBRName).Required().MaxLength(255)
	v.Field("busName", i.BusName).Required()
	v.Field("technology", i.Technology).Required().OneOf("solar", "wind", "battery", "hybrid")
	v.Field("ratedMW", i.RatedMW).Required()
	v.Field("ratedMVA", i.RatedMVA).NonNegative()
	return v.Check()
}

// LCC is a line-commutated converter HVDC link.
type LCC struct {
	Base
	LinkName     string  `json:"linkName" gorm:"column:link_name"`
	RectifierBus string  `json:"rectifierBus" gorm:"column:rectifier_bus"`
	InverterBus  string  `json:"inverterBus" gorm:"column:inverter_bus"`
	Location     string  `json:"location" gorm:"column:location"`
	RatedMW      string  `json:"ratedMW" gorm:"column:rated_mw"`
	DCVoltageKV  string  `json:"dcVoltageKV" gorm:"column:dc_voltage_kv"`
	ControlMode  string  `json:"controlMode" gorm:"column:control_mode"`
	InService    bool    `json:"inService" gorm:"column:in_service"`
	ImageURL     *string `json:"imageUrl" gorm:"column:image_url"`
}

func (LCC) TableName() string {
	return "lcc_links"
}

func (l *LCC) Title() string {
	return l.LinkName
}

func (l *LCC) Validate() error {
	v := validation.NewValidator()
	v.Field("linkName", l.LinkName).Required().MaxLength(255)
	v.Field("rectifierBus", l.RectifierBus).Required()
	v.Field("inverterBus", l.InverterBus).Required()
	v.Field("ratedMW", l.RatedMW).Required()
	v.Field("dcVoltageKV", l.DCVoltageKV).Required()
	v.Field("controlMode", l.ControlMode).OneOf("power", "current")
	return v.Check()
}

// VSC is a voltage-source converter HVDC link.
type VSC struct {
	Base
	LinkName          string  `json:"linkName" gorm:"column:link_name"`
	BusFrom           string  `json:"busFrom" gorm:"column:bus_from"`
	BusTo             string  `json:"busTo" gorm:"column:bus_to"`
	Location          string  `json:"location" gorm:"column:location"`
	RatedMW           string  `json:"ratedMW" gorm:"column:rated_mw"`
	DCVoltageKV       string  `json:"dcVoltageKV" gorm:"column:dc_voltage_kv"`
	ConverterTopology string  `json:"converterTopology" gorm:"column:converter_topology"`
	ControlMode       string  `json:"controlMode" gorm:"column:control_mode"`
	InService         bool    `json:"inService" gorm:"column:in_service"`
	ImageURL          *string `json:"imageUrl" gorm:"column:image_url"`
}

func (VSC) TableName() string {
	return "vsc_links"
}

func (l *VSC) Title() string {
	return l.LinkName
}

func (l *VSC) Validate() error {
	v := validation.NewValidator()
	v.Field("linkName", l.LinkName).Required().MaxLength(255)
	v.Field("busFrom", l.BusFrom).Required()
	v.Field("busTo", l.BusTo).Required()
	v.Field("ratedMW", l.RatedMW).Required()
	v.Field("dcVoltageKV", l.DCVoltageKV).Required()
	v.Field("converterTopology", l.ConverterTopology).OneOf("two-level", "three-level", "mmc")
	return v.Check()
}

type SingleLineDiagram struct {
	Base
	DiagramName    string  `json:"diagramName" gorm:"column:diagram_name"`
	Substation     string  `json:"substation" gorm:"column:substation"`
	Location       string  `json:"location" gorm:"column:location"`
	VoltageLevelKV string  `json:"voltageLevelKV" gorm:"column:voltage_level_kv"`
	Revision       string  `json:"revision" gorm:"column:revision"`
	Description    string  `json:"description" gorm:"column:description"`
	ImageURL       *string `json:"imageUrl" gorm:"column:image_url"`
}

func (SingleLineDiagram) TableName() string {
	return "single_line_diagrams"
}

func (d *SingleLineDiagram) Title() string {
	return d.DiagramName
}

func (d *SingleLineDiagram) Validate() error {
	v := validation.NewValidator()
	v.Field("diagramName", d.DiagramName).Required().MaxLength(255)
	v.Field("substation", d.Substation).Required()
	v.Field("imageUrl", d.ImageURL).Required()
	return v.Check()
}

type Turbine struct {
	Base
	TurbineName   string   `json:"turbineName" gorm:"column:turbine_name"`
	GeneratorName string   `json:"generatorName" gorm:"column:generator_name"`
	Location      string   `json:"location" gorm:"column:location"`
	TurbineType   string   `json:"turbineType" gorm:"column:turbine_type"`
	RatedMW       string   `json:"ratedMW" gorm:"column:rated_mw"`
	SpeedRPM      *float64 `json:"speedRPM" gorm:"column:speed_rpm"`
	GovernorModel string   `json:"governorModel" gorm:"column:governor_model"`
	InService     bool     `json:"inService" gorm:"column:in_service"`
	ImageURL      *string  `json:"imageUrl" gorm:"column:image_url"`
}

func (Turbine) TableName() string {
	return "turbines"
}

func (t *Turbine) Title() string {
	return t.TurbineName
}

func (t *Turbine) Validate() error {
	v := validation.NewValidator()
	v.Field("turbineName", t.TurbineName).Required().MaxLength(255)
	v.Field("generatorName", t.GeneratorName).Required()
	v.Field("turbineType", t.TurbineType).Required().OneOf("steam", "gas", "hydro", "wind", "combined-cycle")
	v.Field("ratedMW", t.RatedMW).Required()
	v.Field("speedRPM", t.SpeedRPM).NonNegative()
	return v.Check()
}

type ExcitationSystem struct {
	Base
	SystemName        string   `json:"systemName" gorm:"column:system_name"`
	GeneratorName     string   `json:"generatorName" gorm:"column:generator_name"`
	Location          string   `json:"location" gorm:"column:location"`
	ExciterType       string   `json:"exciterType" gorm:"column:exciter_type"`
	Model             string   `json:"model" gorm:"column:model"`
	AVRModel          string   `json:"avrModel" gorm:"column:avr_model"`
	PSSModel          string   `json:"pssModel" gorm:"column:pss_model"`
	RatedFieldVoltage *float64 `json:"ratedFieldVoltage" gorm:"column:rated_field_voltage"`
	RatedFieldCurrent *float64 `json:"ratedFieldCurrent" gorm:"column:rated_field_current"`
	InService         bool     `json:"inService" gorm:"column:in_service"`
	ImageURL          *string  `json:"imageUrl" gorm:"column:image_url"`
}

func (ExcitationSystem) TableName() string {
	return "excitation_systems"
}

func (e *ExcitationSystem) Title() string {
	return e.SystemName
}

func (e *ExcitationSystem) Validate() error {
	v := validation.NewValidator()
	v.Field("systemName", e.SystemName).Required().MaxLength(255)
	v.Field("generatorName", e.GeneratorName).Required()
	v.Field("exciterType", e.ExciterType).Required().OneOf("dc", "ac", "static")
	v.Field("ratedFieldVoltage", e.RatedFieldVoltage).NonNegative()
	v.Field("ratedFieldCurrent", e.RatedFieldCurrent).NonNegative()
	return v.Check()
}
