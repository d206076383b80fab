package drivers

import (
	"github.com/wmbusd/wmbusd/internal/wmbus/dif"
	"github.com/wmbusd/wmbusd/internal/wmbus/driver"
	"github.com/wmbusd/wmbusd/internal/wmbus/field"
)

const mfctEIE uint16 = 0x1525

func init() {
	errorFlags := field.Lookup{
		Mask:         0xFFFF,
		DefaultLabel: "OK",
		Bits: []field.BitEntry{
			{Mask: 0x01, Label: "SMOKE_DETECTED"},
			{Mask: 0x02, Label: "TAMPER"},
			{Mask: 0x04, Label: "BATTERY_LOW"},
		},
	}

	batteryVoltage := field.Lookup{
		Mask:      0x0F00,
		Indexed:   true,
		IndexName: "BATTERY_VOLTAGE",
		Bits: []field.BitEntry{
			{Mask: 0x0000, Label: "2.25V"},
			{Mask: 0x0100, Label: "2.30V"},
			{Mask: 0x0200, Label: "2.35V"},
			{Mask: 0x0300, Label: "2.40V"},
			{Mask: 0x0400, Label: "2.45V"},
			{Mask: 0x0500, Label: "2.50V"},
			{Mask: 0x0600, Label: "2.55V"},
			{Mask: 0x0700, Label: "2.60V"},
			{Mask: 0x0800, Label: "2.65V"},
			{Mask: 0x0900, Label: "2.70V"},
			{Mask: 0x0A00, Label: "2.75V"},
			{Mask: 0x0B00, Label: "2.80V"},
			{Mask: 0x0C00, Label: "2.85V"},
			{Mask: 0x0D00, Label: "2.90V"},
			{Mask: 0x0E00, Label: "2.95V"},
			{Mask: 0x0F00, Label: "3.00V"},
		},
	}

	dustLevel := field.Lookup{
		Mask:      0x1F,
		Indexed:   true,
		IndexName: "DUST",
	}

	driver.Register(driver.Info{
		Name:      "ei6500",
		MeterType: "SmokeDetector",
		DefaultFields: []string{
			"name", "id", "status", "alarm_counter", "installation_date",
			"dust_level", "battery_level", "timestamp",
		},
		LinkModes: []string{"T1"},
		Detections: []driver.Detection{
			{Mfct: mfctEIE, Version: 0x0C, Media: 0x1A},
		},
		Fields: []field.Info{
			field.StringField("status", "Status and error flags.",
				field.PropJSON|field.PropField|field.PropImportant|field.PropStatus|field.PropJoinTPLStatus,
				field.NewMatcher().VIFRange(dif.ErrorFlags), errorFlags),

			field.NumericField("alarm_counter", "Number of times the smoke alarm has triggered.",
				field.PropJSON|field.PropField|field.PropImportant, field.QuantityDimensionless, field.ScalingNone,
				field.NewMatcher().Measurement(dif.Instantaneous).SubUnitNr(1).TariffNr(1).VIFRange(dif.CumulationCounter)),

			field.DateTimeField("installation_date", "Date when the smoke alarm was installed.",
				field.PropJSON,
				field.NewMatcher().Measurement(dif.Instantaneous).TariffNr(2).VIFRange(dif.Date)),

			field.StringField("dust_level", "Dust level 0 (best) to 15 (worst).",
				field.PropJSON, field.NewMatcher().DifVifKey("8440FF2C"), dustLevel),

			field.StringField("battery_level", "Battery voltage level.",
				field.PropJSON, field.NewMatcher().DifVifKey("8440FF2C"), batteryVoltage),
		},
	})
}
