package dif

// MeasurementType is the DIF high-nibble function field.
type MeasurementType int

const (
	Instantaneous MeasurementType = iota
	Minimum
	Maximum
	AtError
	Unknown
)

func (m MeasurementType) String() string {
	switch m {
	case Instantaneous:
		return "Instantaneous"
	case Minimum:
		return "Minimum"
	case Maximum:
		return "Maximum"
	case AtError:
		return "AtError"
	default:
		return "Unknown"
	}
}

// VIFRange is an abstract equivalence class over concrete VIFs, e.g.
// AnyEnergyVIF covers every energy VIF regardless of its scale nibble.
type VIFRange int

const (
	VIFRangeNone VIFRange = iota
	VIFRangeAny
	Volume
	VolumeFlow
	VolumeFlowExt
	AnyEnergyVIF
	AnyPowerVIF
	FlowTemperature
	ReturnTemperature
	ExternalTemperature
	TemperatureDifference
	FlowReturnTemperatureDifference
	Pressure
	Voltage
	Amperage
	Frequency
	Dimensionless
	Date
	DateTime
	Time
	ErrorFlags
	AccessNumber
	Manufacturer
	ActualityDuration
	OperatingTime
	OnTime
	RelativeHumidity
	HeatCostAllocation
	AnyVolumeVIF
	DurationOfTariff
	FirstVolumeFlow
	TextVIF
	AverageDuration
	BatteryVoltage
	CumulationCounter
)

var vifRangeNames = map[VIFRange]string{
	VIFRangeNone:                    "None",
	VIFRangeAny:                     "Any",
	Volume:                          "Volume",
	VolumeFlow:                      "VolumeFlow",
	VolumeFlowExt:                   "VolumeFlowExt",
	AnyEnergyVIF:                    "AnyEnergyVIF",
	AnyPowerVIF:                     "AnyPowerVIF",
	FlowTemperature:                 "FlowTemperature",
	ReturnTemperature:               "ReturnTemperature",
	ExternalTemperature:             "ExternalTemperature",
	TemperatureDifference:           "TemperatureDifference",
	FlowReturnTemperatureDifference: "FlowReturnTemperatureDifference",
	Pressure:                        "Pressure",
	Voltage:                         "Voltage",
	Amperage:                        "Amperage",
	Frequency:                       "Frequency",
	Dimensionless:                   "Dimensionless",
	Date:                            "Date",
	DateTime:                        "DateTime",
	Time:                            "Time",
	ErrorFlags:                      "ErrorFlags",
	AccessNumber:                    "AccessNumber",
	Manufacturer:                    "Manufacturer",
	ActualityDuration:               "ActualityDuration",
	OperatingTime:                   "OperatingTime",
	OnTime:                          "OnTime",
	RelativeHumidity:                "RelativeHumidity",
	HeatCostAllocation:              "HeatCostAllocation",
	AnyVolumeVIF:                    "AnyVolumeVIF",
	DurationOfTariff:                "DurationOfTariff",
	FirstVolumeFlow:                 "FirstVolumeFlow",
	TextVIF:                         "TextVIF",
	AverageDuration:                 "AverageDuration",
	BatteryVoltage:                  "BatteryVoltage",
	CumulationCounter:               "CumulationCounter",
}

func (v VIFRange) String() string {
	if s, ok := vifRangeNames[v]; ok {
		return s
	}
	return "Unknown"
}
