package drivers

import (
	"github.com/wmbusd/wmbusd/internal/wmbus/dif"
	"github.com/wmbusd/wmbusd/internal/wmbus/driver"
	"github.com/wmbusd/wmbusd/internal/wmbus/field"
)

const mfctQDS uint16 = 0x4493

func init() {
	tplStatus := field.Lookup{
		Mask:         0xFF,
		DefaultLabel: "OK",
		Bits: []field.BitEntry{
			{Mask: 0x10, Label: "TEMPORARY_ERROR"},
		},
	}

	driver.Register(driver.Info{
		Name:      "qwater",
		MeterType: "WaterMeter",
		DefaultFields: []string{
			"name", "id", "total_m3", "due_date_m3", "due_date", "status", "timestamp",
		},
		LinkModes: []string{"S1"},
		Detections: []driver.Detection{
			{Mfct: mfctQDS, Version: 0x37, Media: 0x33},
			{Mfct: mfctQDS, Version: 0x37, Media: 0x35},
			{Mfct: mfctQDS, Version: 0x06, Media: 0x16},
			{Mfct: mfctQDS, Version: 0x07, Media: 0x16},
			{Mfct: mfctQDS, Version: 0x06, Media: 0x17},
			{Mfct: mfctQDS, Version: 0x07, Media: 0x17},
			{Mfct: mfctQDS, Version: 0x06, Media: 0x18},
			{Mfct: mfctQDS, Version: 0x07, Media: 0x18},
			{Mfct: mfctQDS, Version: 0x07, Media: 0x19},
			{Mfct: mfctQDS, Version: 0x06, Media: 0x1A},
			{Mfct: mfctQDS, Version: 0x07, Media: 0x1A},
			{Mfct: mfctQDS, Version: 0x06, Media: 0x35},
			{Mfct: mfctQDS, Version: 0x07, Media: 0x35},
		},
		Fields: []field.Info{
			field.StringField("status", "Meter status tpl status field.",
				field.PropJSON|field.PropField|field.PropImportant|field.PropStatus|field.PropJoinTPLStatus,
				field.NewMatcher(), tplStatus),

			field.NumericField("total_m3", "The total water consumption recorded by this meter.",
				field.PropJSON|field.PropField|field.PropImportant, field.QuantityVolume, field.ScalingAuto,
				field.NewMatcher().Measurement(dif.Instantaneous).VIFRange(dif.Volume)),

			field.NumericField("due_date_m3", "The water consumption at the due date.",
				field.PropJSON|field.PropOptional, field.QuantityVolume, field.ScalingAuto,
				field.NewMatcher().Measurement(dif.Instantaneous).VIFRange(dif.Volume).StorageNr(1)),

			field.NumericField("due_date", "The due date for billing.",
				field.PropJSON|field.PropOptional, field.QuantityPointInTime, field.ScalingAuto,
				field.NewMatcher().Measurement(dif.Instantaneous).VIFRange(dif.Date).StorageNr(1)),

			field.NumericField("due_17_date_m3", "The water consumption at the 17th due date.",
				field.PropJSON|field.PropOptional, field.QuantityVolume, field.ScalingAuto,
				field.NewMatcher().Measurement(dif.Instantaneous).VIFRange(dif.Volume).StorageNr(17)),

			field.NumericField("volume_flow", "Volume flow when duration exceeds the lower last limit.",
				field.PropJSON|field.PropOptional, field.QuantityFlow, field.ScalingAuto,
				field.NewMatcher().Measurement(dif.Instantaneous).VIFRange(dif.VolumeFlow).Combinable(dif.DurationExceedsLowerLast)),

			field.NumericField("error_date", "The date the error occurred at, if any.",
				field.PropJSON|field.PropOptional, field.QuantityPointInTime, field.ScalingAuto,
				field.NewMatcher().Measurement(dif.AtError).VIFRange(dif.Date)),
		},
	})
}
