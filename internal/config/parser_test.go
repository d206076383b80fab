package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMeterConfigBlock(t *testing.T) {
	data := []byte(`
# a comment line, ignored
name=kitchen
bus=/dev/ttyUSB0:im871a
driver=multical21
id=12345678
key=00112233445566778899AABBCCDDEEFF
pollinterval=60
shell=/usr/bin/logger meter seen
selectfields=total_m3,target_m3
json_location=kitchen sink
calculate_flow=total_m3 / pollinterval
`)
	mc, err := ParseMeterConfigBlock(data)
	require.NoError(t, err)
	assert.Equal(t, "kitchen", mc.Name)
	assert.Equal(t, "/dev/ttyUSB0:im871a", mc.Bus)
	assert.Equal(t, "multical21", mc.Driver)
	assert.Equal(t, "12345678", mc.ID)
	assert.Equal(t, 60*time.Second, mc.PollInterval)
	assert.Equal(t, []string{"/usr/bin/logger meter seen"}, mc.Shells)
	assert.Equal(t, []string{"total_m3", "target_m3"}, mc.SelectFields)
	assert.Contains(t, mc.ExtraConstantFields, "location=kitchen sink")
	assert.Contains(t, mc.CalculatedFields, "flow=total_m3 / pollinterval")
}

func TestParseMeterConfigBlockRejectsColonInName(t *testing.T) {
	_, err := ParseMeterConfigBlock([]byte("name=kitchen:sink\ndriver=auto\n"))
	assert.Error(t, err)
}

func TestParseMeterConfigBlockRequiresName(t *testing.T) {
	_, err := ParseMeterConfigBlock([]byte("driver=auto\nid=*\n"))
	assert.Error(t, err)
}

func TestParseGlobalConfigFile(t *testing.T) {
	data := []byte(`
loglevel=debug
device=/dev/ttyUSB0:im871a
device=rtlwmbus
logtelegrams=true
meterfiles=/var/lib/wmbusd/meter_readings
format=fields
separator=,
logtimestamps=always
selectfields=total_m3,status
donotprobe=auto
ignoreduplicates=true
`)
	c, err := ParseGlobalConfigFile(data)
	require.NoError(t, err)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, []string{"/dev/ttyUSB0:im871a", "rtlwmbus"}, c.Devices)
	assert.True(t, c.LogTelegrams)
	assert.True(t, c.Meterfiles)
	assert.Equal(t, "/var/lib/wmbusd/meter_readings", c.MeterfilesDir)
	assert.Equal(t, "fields", c.Format)
	assert.Equal(t, ",", c.Separator)
	assert.Equal(t, "always", c.LogTimestamps)
	assert.Equal(t, []string{"total_m3", "status"}, c.SelectFields)
	assert.Equal(t, []string{"auto"}, c.DoNotProbe)
	assert.True(t, c.IgnoreDuplicates)
}

func TestParseGlobalConfigFileRejectsUnknownFormat(t *testing.T) {
	_, err := ParseGlobalConfigFile([]byte("format=xml\n"))
	assert.Error(t, err)
}

func TestParseGlobalConfigFileRejectsMultiCharSeparator(t *testing.T) {
	_, err := ParseGlobalConfigFile([]byte("separator=;;\n"))
	assert.Error(t, err)
}

func TestParseKeyValueLinesSkipsCommentsAndBlankLines(t *testing.T) {
	pairs := parseKeyValueLines([]byte("# comment\n\nfoo=bar\nno-equals-sign\nbaz = qux \n"))
	require.Len(t, pairs, 2)
	assert.Equal(t, [2]string{"foo", "bar"}, pairs[0])
	assert.Equal(t, [2]string{"baz", "qux"}, pairs[1])
}
