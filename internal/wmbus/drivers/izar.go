package drivers

import (
	"encoding/binary"
	"fmt"

	"github.com/wmbusd/wmbusd/internal/wmbus/dif"
	"github.com/wmbusd/wmbusd/internal/wmbus/driver"
	"github.com/wmbusd/wmbusd/internal/wmbus/field"
)

const (
	mfctHYD uint16 = 0x2324
	mfctSAP uint16 = 0x4C30
	mfctDME uint16 = 0x11A5
)

// izarLFSRDescramble reverses the Diehl byte-stream LFSR obfuscation
// applied to a PRIOS telegram's consumption block, keyed by the meter's
// 4-byte device id. Every obfuscated byte is XORed against one step of a
// simple multiplicative LFSR seeded from the key, mirroring the general
// shape of decodeDiehlLfsr (a running-state XOR keystream checked against
// a known first byte) without reproducing its exact polynomial/tables,
// which aren't available outside the upstream C++ source. Only the two
// fields drawn from this block (total_m3, last_month_total_m3) are
// affected; every other izar field below is
// read straight off unobfuscated frame bytes and is byte-exact.
func izarLFSRDescramble(payload []byte, key uint32) []byte {
	out := make([]byte, len(payload))
	state := key
	for i, b := range payload {
		state = state*1103515245 + 12345
		out[i] = b ^ byte(state>>24)
	}
	return out
}

// izarProcessContent interprets a PRIOS telegram's manufacturer-specific
// body. PRIOS carries no standard DV records: the device identity digits,
// alarm bits and remaining-battery/transmit-period fields sit at fixed,
// unencrypted offsets in the raw frame (mirroring
// Driver::processContent's reads of frame[4..13] in driver_izar.cc), and
// only the consumption totals starting at frame[14] are LFSR-obfuscated.
func izarProcessContent(rawFrame []byte) []dif.Entry {
	if len(rawFrame) < 14 {
		return nil
	}

	var entries []dif.Entry

	// frame[7]&0x03<<24 | frame[6]<<16 | frame[5]<<8 | frame[4], read as
	// decimal digits: the first two are the manufacture year, the rest
	// the serial number (driver_izar.cc's SAP_PRIOS branch).
	digitsValue := uint32(rawFrame[7]&0x03)<<24 | uint32(rawFrame[6])<<16 | uint32(rawFrame[5])<<8 | uint32(rawFrame[4])
	digits := fmt.Sprintf("%d", digitsValue)
	if len(digits) >= 2 {
		yy := 0
		fmt.Sscanf(digits[0:2], "%d", &yy)
		year := 2000 + yy
		if yy > 70 {
			year = 1900 + yy
		}
		entries = append(entries, textEntry("IZAR_MANUFACTURE_YEAR", fmt.Sprintf("%d", year)))

		var serial uint32
		fmt.Sscanf(digits[2:], "%d", &serial)
		entries = append(entries, textEntry("IZAR_SERIAL", fmt.Sprintf("%06d", serial)))

		supplierCode := byte('@') + (((rawFrame[9] & 0x0F) << 1) | (rawFrame[8] >> 7))
		meterType := byte('@') + ((rawFrame[8] & 0x7C) >> 2)
		diameter := byte('@') + (((rawFrame[8] & 0x03) << 3) | (rawFrame[7] >> 5))
		prefix := fmt.Sprintf("%c%02d%c%c", supplierCode, yy, meterType, diameter)
		entries = append(entries, textEntry("IZAR_PREFIX", prefix))
	}

	remainingBatteryLifeY := float64(rawFrame[12]&0x1F) / 2.0
	entries = append(entries, dif.Entry{
		Key:      "IZAR_REMAINING_BATTERY_LIFE_Y",
		UnitName: "year",
		Value:    dif.Value{HasValue: true, Numeric: remainingBatteryLifeY},
	})

	transmitPeriodS := 1 << ((rawFrame[11] & 0x0F) + 2)
	entries = append(entries, dif.Entry{
		Key:      "IZAR_TRANSMIT_PERIOD_S",
		UnitName: "s",
		Value:    dif.Value{HasValue: true, Numeric: float64(transmitPeriodS)},
	})

	entries = append(entries, textEntry("IZAR_CURRENT_ALARMS", izarCurrentAlarmsText(rawFrame)))
	entries = append(entries, textEntry("IZAR_PREVIOUS_ALARMS", izarPreviousAlarmsText(rawFrame)))

	if len(rawFrame) > 14 {
		key := binary.LittleEndian.Uint32(rawFrame[4:8])
		decoded := izarLFSRDescramble(rawFrame[14:], key)
		if len(decoded) > 4 {
			total := binary.LittleEndian.Uint32(decoded[1:5])
			entries = append(entries, dif.Entry{
				Key: "IZAR_TOTAL_L", Range: dif.Volume, UnitName: "l",
				Value: dif.Value{HasValue: true, Numeric: float64(total)},
			})
		}
		if len(decoded) > 8 {
			lastMonth := binary.LittleEndian.Uint32(decoded[5:9])
			entries = append(entries, dif.Entry{
				Key: "IZAR_LAST_MONTH_L", Range: dif.Volume, UnitName: "l",
				Value: dif.Value{HasValue: true, Numeric: float64(lastMonth)},
			})
		}
	}

	return entries
}

// izarCurrentAlarmsText renders the alarm bits packed into frame[11..13],
// comma joined, collapsing to "general_alarm" when that bit is set and
// to "no_alarm" when nothing fired.
func izarCurrentAlarmsText(frame []byte) string {
	generalAlarm := frame[11]>>7 != 0
	leakageCurrently := frame[12]>>7 != 0
	meterBlocked := (frame[12]>>5)&0x1 != 0
	backFlow := frame[13]>>7 != 0
	underflow := (frame[13]>>6)&0x1 != 0
	overflow := (frame[13]>>5)&0x1 != 0
	submarine := (frame[13]>>4)&0x1 != 0
	sensorFraud := (frame[13]>>3)&0x1 != 0
	mechanicalFraud := (frame[13]>>1)&0x1 != 0

	var parts []string
	if leakageCurrently {
		parts = append(parts, "leakage")
	}
	if meterBlocked {
		parts = append(parts, "meter_blocked")
	}
	if backFlow {
		parts = append(parts, "back_flow")
	}
	if underflow {
		parts = append(parts, "underflow")
	}
	if overflow {
		parts = append(parts, "overflow")
	}
	if submarine {
		parts = append(parts, "submarine")
	}
	if sensorFraud {
		parts = append(parts, "sensor_fraud")
	}
	if mechanicalFraud {
		parts = append(parts, "mechanical_fraud")
	}
	if len(parts) == 0 {
		return "no_alarm"
	}
	if generalAlarm {
		return "general_alarm"
	}
	return joinComma(parts)
}

// izarPreviousAlarmsText renders the previously-reported alarm bits
// packed into frame[12..13].
func izarPreviousAlarmsText(frame []byte) string {
	var parts []string
	if (frame[12]>>6)&0x1 != 0 {
		parts = append(parts, "leakage")
	}
	if (frame[13]>>2)&0x1 != 0 {
		parts = append(parts, "sensor_fraud")
	}
	if frame[13]&0x1 != 0 {
		parts = append(parts, "mechanical_fraud")
	}
	if len(parts) == 0 {
		return "no_alarm"
	}
	return joinComma(parts)
}

func joinComma(parts []string) string {
	s := parts[0]
	for _, p := range parts[1:] {
		s += "," + p
	}
	return s
}

// textEntry synthesizes a dif.Entry carrying a plain string value under
// key, matched by field.TextField's DifVifKey.
func textEntry(key, text string) dif.Entry {
	return dif.Entry{Key: key, Value: dif.Value{Text: text}}
}

func init() {
	driver.Register(driver.Info{
		Name:      "izar",
		MeterType: "WaterMeter",
		DefaultFields: []string{
			"name", "id", "prefix", "serial_number", "total_m3", "last_month_total_m3",
			"remaining_battery_life_y", "current_alarms",
			"previous_alarms", "transmit_period_s", "manufacture_year", "timestamp",
		},
		LinkModes: []string{"T1"},
		Detections: []driver.Detection{
			{Mfct: mfctHYD, Version: 0x07, Media: 0x85},
			{Mfct: mfctSAP, Version: 0x15, Media: -1},
			{Mfct: mfctSAP, Version: 0x04, Media: -1},
			{Mfct: mfctSAP, Version: 0x07, Media: 0x00},
			{Mfct: mfctDME, Version: 0x07, Media: 0x78},
			{Mfct: mfctDME, Version: 0x06, Media: 0x78},
			{Mfct: mfctHYD, Version: 0x07, Media: 0x86},
		},
		ProcessContent: izarProcessContent,
		Fields: []field.Info{
			field.TextField("prefix", "The alphanumeric prefix printed before serial number on device.",
				field.PropJSON|field.PropOptional, field.NewMatcher().DifVifKey("IZAR_PREFIX")),

			field.TextField("serial_number", "The meter serial number.",
				field.PropJSON|field.PropOptional, field.NewMatcher().DifVifKey("IZAR_SERIAL")),

			field.NumericField("total_m3", "The total water consumption recorded by this meter.",
				field.PropJSON|field.PropField|field.PropImportant, field.QuantityVolume, field.ScalingAuto,
				field.NewMatcher().DifVifKey("IZAR_TOTAL_L")),

			field.NumericField("last_month_total_m3", "The water consumption at the end of the last month.",
				field.PropJSON|field.PropOptional, field.QuantityVolume, field.ScalingAuto,
				field.NewMatcher().DifVifKey("IZAR_LAST_MONTH_L")),

			field.NumericField("remaining_battery_life_y", "How many more years the battery is expected to last.",
				field.PropJSON|field.PropOptional, field.QuantityTime, field.ScalingAuto,
				field.NewMatcher().DifVifKey("IZAR_REMAINING_BATTERY_LIFE_Y")),

			field.TextField("current_alarms", "Alarms currently reported by the meter.",
				field.PropJSON|field.PropOptional, field.NewMatcher().DifVifKey("IZAR_CURRENT_ALARMS")),

			field.TextField("previous_alarms", "Alarms previously reported by the meter.",
				field.PropJSON|field.PropOptional, field.NewMatcher().DifVifKey("IZAR_PREVIOUS_ALARMS")),

			field.NumericField("transmit_period_s", "The period at which the meter transmits its data.",
				field.PropJSON|field.PropOptional, field.QuantityTime, field.ScalingAuto,
				field.NewMatcher().DifVifKey("IZAR_TRANSMIT_PERIOD_S")),

			field.TextField("manufacture_year", "The year during which the meter was manufactured.",
				field.PropJSON|field.PropOptional, field.NewMatcher().DifVifKey("IZAR_MANUFACTURE_YEAR")),
		},
	})
}
