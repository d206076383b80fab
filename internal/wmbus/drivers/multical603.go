package drivers

import (
	"github.com/wmbusd/wmbusd/internal/wmbus/dif"
	"github.com/wmbusd/wmbusd/internal/wmbus/driver"
	"github.com/wmbusd/wmbusd/internal/wmbus/field"
)

const mfctKAM uint16 = 0x2C2D

func init() {
	errorFlags := field.Lookup{
		Mask:         0xFFFFFFFF,
		DefaultLabel: "OK",
		Bits: []field.BitEntry{
			{Mask: 0x00000001, Label: "VOLTAGE_INTERRUPTED"},
			{Mask: 0x00000002, Label: "LOW_BATTERY_LEVEL"},
			{Mask: 0x00000004, Label: "SENSOR_ERROR"},
			{Mask: 0x00000008, Label: "SENSOR_T1_ABOVE_MEASURING_RANGE"},
			{Mask: 0x00000010, Label: "SENSOR_T2_ABOVE_MEASURING_RANGE"},
			{Mask: 0x00000020, Label: "SENSOR_T1_BELOW_MEASURING_RANGE"},
			{Mask: 0x00000040, Label: "SENSOR_T2_BELOW_MEASURING_RANGE"},
			{Mask: 0x00000080, Label: "TEMP_DIFF_WRONG_POLARITY"},
			{Mask: 0x00000100, Label: "FLOW_SENSOR_WEAK_OR_AIR"},
			{Mask: 0x00000200, Label: "WRONG_FLOW_DIRECTION"},
			{Mask: 0x00000800, Label: "FLOW_INCREASED"},
			{Mask: 0x00010000, Label: "V1_COMMUNICATION_ERROR"},
		},
	}

	driver.Register(driver.Info{
		Name:      "multical603",
		MeterType: "HeatMeter",
		DefaultFields: []string{
			"name", "id", "total_energy_consumption_kwh", "total_volume_m3", "volume_flow_m3h",
			"t1_temperature_c", "t2_temperature_c", "current_status", "timestamp",
		},
		LinkModes: []string{"C1", "T1"},
		Detections: []driver.Detection{
			{Mfct: mfctKAM, Version: 0x04, Media: 0x35},
			{Mfct: mfctKAM, Version: 0x0C, Media: 0x35},
		},
		Fields: []field.Info{
			field.StringField("status", "Status and error flags.",
				field.PropJSON|field.PropField|field.PropImportant|field.PropStatus|field.PropJoinTPLStatus,
				field.NewMatcher().DifVifKey("04FF22"), errorFlags),

			field.NumericField("total_energy_consumption", "The total energy consumption recorded by this meter.",
				field.PropJSON|field.PropField|field.PropImportant, field.QuantityEnergy, field.ScalingAuto,
				field.NewMatcher().Measurement(dif.Instantaneous).VIFRange(dif.AnyEnergyVIF)),

			field.NumericField("total_volume", "The volume of water.",
				field.PropJSON|field.PropOptional, field.QuantityVolume, field.ScalingAuto,
				field.NewMatcher().Measurement(dif.Instantaneous).VIFRange(dif.Volume)),

			field.NumericField("volume_flow", "The actual amount of water that passes through this meter.",
				field.PropJSON|field.PropOptional, field.QuantityFlow, field.ScalingAuto,
				field.NewMatcher().Measurement(dif.Instantaneous).VIFRange(dif.VolumeFlow)),

			field.NumericField("power", "The current power flowing.",
				field.PropJSON|field.PropOptional, field.QuantityPower, field.ScalingAuto,
				field.NewMatcher().Measurement(dif.Instantaneous).VIFRange(dif.AnyPowerVIF)),

			field.NumericField("max_power", "The maximum power supplied.",
				field.PropJSON|field.PropOptional, field.QuantityPower, field.ScalingAuto,
				field.NewMatcher().Measurement(dif.Maximum).VIFRange(dif.AnyPowerVIF)),

			field.NumericField("t1_temperature", "The forward temperature of the water.",
				field.PropJSON|field.PropOptional, field.QuantityTemperature, field.ScalingAuto,
				field.NewMatcher().Measurement(dif.Instantaneous).VIFRange(dif.FlowTemperature)),

			field.NumericField("t2_temperature", "The return temperature of the water.",
				field.PropJSON|field.PropOptional, field.QuantityTemperature, field.ScalingAuto,
				field.NewMatcher().Measurement(dif.Instantaneous).VIFRange(dif.ReturnTemperature)),

			field.NumericField("max_flow", "The maximum flow of water that passed through this meter.",
				field.PropJSON|field.PropOptional, field.QuantityFlow, field.ScalingAuto,
				field.NewMatcher().Measurement(dif.Maximum).VIFRange(dif.VolumeFlow)),
		},
	})
}
