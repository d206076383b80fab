package drivers

import (
	"github.com/wmbusd/wmbusd/internal/wmbus/dif"
	"github.com/wmbusd/wmbusd/internal/wmbus/driver"
	"github.com/wmbusd/wmbusd/internal/wmbus/field"
)

const (
	mfctDWZ uint16 = 0x12FA
	mfctEFE uint16 = 0x14C5
)

func init() {
	errorFlags := field.Lookup{
		Mask:         0xFFFF,
		DefaultLabel: "OK",
		Bits: []field.BitEntry{
			{Mask: 0x01, Label: "SW_ERROR"},
			{Mask: 0x02, Label: "CRC_ERROR"},
			{Mask: 0x04, Label: "SENSOR_ERROR"},
			{Mask: 0x08, Label: "BATTERY_LOW"},
		},
	}

	driver.Register(driver.Info{
		Name:      "waterstarm",
		MeterType: "WaterMeter",
		DefaultFields: []string{
			"name", "id", "meter_datetime", "total_m3", "total_backwards_m3", "status", "timestamp",
		},
		LinkModes: []string{"T1", "C1"},
		Detections: []driver.Detection{
			{Mfct: mfctDWZ, Version: 0x06, Media: 0x00},
			{Mfct: mfctDWZ, Version: 0x06, Media: 0x02},
			{Mfct: mfctDWZ, Version: 0x07, Media: 0x02},
			{Mfct: mfctEFE, Version: 0x07, Media: 0x03},
			{Mfct: mfctEFE, Version: 0x07, Media: 0x70},
			{Mfct: mfctDWZ, Version: 0x07, Media: 0x00},
		},
		Fields: []field.Info{
			field.StringField("status", "Status and error flags.",
				field.PropJSON|field.PropField|field.PropImportant|field.PropStatus|field.PropJoinTPLStatus,
				field.NewMatcher().VIFRange(dif.ErrorFlags), errorFlags),

			field.NumericField("meter_datetime", "Device date time.",
				field.PropJSON|field.PropOptional, field.QuantityPointInTime, field.ScalingAuto,
				field.NewMatcher().Measurement(dif.Instantaneous).VIFRange(dif.DateTime)),

			field.NumericField("total_m3", "The total water consumption recorded by this meter.",
				field.PropJSON|field.PropField|field.PropImportant, field.QuantityVolume, field.ScalingAuto,
				field.NewMatcher().Measurement(dif.Instantaneous).VIFRange(dif.Volume)),

			field.NumericField("total_backwards_m3", "The total backwards (returned) water volume.",
				field.PropJSON|field.PropOptional, field.QuantityVolume, field.ScalingAuto,
				field.NewMatcher().Measurement(dif.Instantaneous).VIFRange(dif.Volume).Combinable(dif.BackwardFlow)),
		},
	})
}
