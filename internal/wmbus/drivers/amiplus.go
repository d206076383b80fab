package drivers

import (
	"github.com/wmbusd/wmbusd/internal/wmbus/dif"
	"github.com/wmbusd/wmbusd/internal/wmbus/driver"
	"github.com/wmbusd/wmbusd/internal/wmbus/field"
)

const (
	mfctAPA uint16 = 0x0601
	mfctDEV uint16 = 0x10B6
	mfctNES uint16 = 0x38B3
)

func init() {
	driver.Register(driver.Info{
		Name:      "amiplus",
		MeterType: "ElectricityMeter",
		DefaultFields: []string{
			"name", "id", "total_energy_consumption_kwh", "current_power_consumption_kw",
			"total_energy_production_kwh", "current_power_production_kw",
			"voltage_at_phase_1_v", "voltage_at_phase_2_v", "voltage_at_phase_3_v",
			"device_date_time",
			"total_energy_consumption_tariff_1_kwh", "total_energy_consumption_tariff_2_kwh",
			"total_energy_consumption_tariff_3_kwh", "timestamp",
		},
		LinkModes: []string{"T1"},
		Detections: []driver.Detection{
			{Mfct: mfctAPA, Version: 0x02, Media: 0x02},
			{Mfct: mfctDEV, Version: 0x37, Media: 0x02},
			{Mfct: mfctDEV, Version: 0x02, Media: 0x00},
			{Mfct: mfctDEV, Version: 0x02, Media: 0x01},
			{Mfct: mfctNES, Version: 0x02, Media: 0x03},
			{Mfct: mfctAPA, Version: 0x02, Media: 0x01},
		},
		Fields: []field.Info{
			field.NumericField("total_energy_consumption", "The total energy consumption recorded by this meter.",
				field.PropJSON|field.PropField|field.PropImportant, field.QuantityEnergy, field.ScalingAuto,
				field.NewMatcher().Measurement(dif.Instantaneous).VIFRange(dif.AnyEnergyVIF)),

			field.NumericField("current_power_consumption", "Current power consumption.",
				field.PropJSON|field.PropField|field.PropImportant, field.QuantityPower, field.ScalingAuto,
				field.NewMatcher().Measurement(dif.Instantaneous).VIFRange(dif.AnyPowerVIF)),

			field.NumericField("total_energy_production", "The total energy production recorded by this meter.",
				field.PropJSON|field.PropOptional, field.QuantityEnergy, field.ScalingAuto,
				field.NewMatcher().DifVifKey("0E833C")),

			field.NumericField("current_power_production", "Current power production.",
				field.PropJSON|field.PropOptional, field.QuantityPower, field.ScalingAuto,
				field.NewMatcher().DifVifKey("0BAB3C")),

			field.DateTimeField("device_date_time", "Device date time.",
				field.PropJSON|field.PropOptional,
				field.NewMatcher().Measurement(dif.Instantaneous).VIFRange(dif.DateTime)),

			field.NumericField("total_energy_consumption_tariff_1", "Energy consumption, tariff 1.",
				field.PropJSON|field.PropOptional, field.QuantityEnergy, field.ScalingAuto,
				field.NewMatcher().Measurement(dif.Instantaneous).VIFRange(dif.AnyEnergyVIF).TariffNr(1)),

			field.NumericField("total_energy_consumption_tariff_2", "Energy consumption, tariff 2.",
				field.PropJSON|field.PropOptional, field.QuantityEnergy, field.ScalingAuto,
				field.NewMatcher().Measurement(dif.Instantaneous).VIFRange(dif.AnyEnergyVIF).TariffNr(2)),

			field.NumericField("total_energy_consumption_tariff_3", "Energy consumption, tariff 3.",
				field.PropJSON|field.PropOptional, field.QuantityEnergy, field.ScalingAuto,
				field.NewMatcher().Measurement(dif.Instantaneous).VIFRange(dif.AnyEnergyVIF).TariffNr(3)),

			field.NumericField("voltage_at_phase_1", "Voltage on phase 1.",
				field.PropJSON|field.PropOptional, field.QuantityVoltage, field.ScalingAuto,
				field.NewMatcher().VIFRange(dif.Voltage).Combinable(dif.AtPhase1)),

			field.NumericField("voltage_at_phase_2", "Voltage on phase 2.",
				field.PropJSON|field.PropOptional, field.QuantityVoltage, field.ScalingAuto,
				field.NewMatcher().VIFRange(dif.Voltage).Combinable(dif.AtPhase2)),

			field.NumericField("voltage_at_phase_3", "Voltage on phase 3.",
				field.PropJSON|field.PropOptional, field.QuantityVoltage, field.ScalingAuto,
				field.NewMatcher().VIFRange(dif.Voltage).Combinable(dif.AtPhase3)),
		},
	})
}
