package vivian

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viiiiva/vivian/directory"
)

func buildDirectoryBuffer(t *testing.T, clockDevice uint32, entries ...[]byte) []byte {
	t.Helper()
	header := make([]byte, 16)
	header[0], header[1], header[2] = 1, 16, 1
	for i := 0; i < 4; i++ {
		header[8+i] = byte(clockDevice >> (8 * i))
	}
	buf := append([]byte{}, header...)
	for _, e := range entries {
		buf = append(buf, e...)
	}
	return buf
}

func buildEntryRecord(index uint16, fileType uint16, length, timeDevice uint32) []byte {
	rec := make([]byte, 16)
	rec[0] = byte(index)
	rec[1] = byte(index >> 8)
	rec[2] = byte(fileType)
	rec[3] = byte(fileType >> 8)
	for i := 0; i < 4; i++ {
		rec[8+i] = byte(length >> (8 * i))
	}
	for i := 0; i < 4; i++ {
		rec[12+i] = byte(timeDevice >> (8 * i))
	}
	return rec
}

func TestClientEraseFileRoundTrip(t *testing.T) {
	device := NewStaticDevice(0)
	device.Files[0x1234] = []byte("hello")

	var events []Event
	transport := NewVirtualTransport(device, nil)
	client := NewClient(transport, func(e Event) { events = append(events, e) })

	client.EraseFile(0x1234)
	transport.Pump(client)

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, EventEraseFile, last.Kind)
	assert.EqualValues(t, 0x1234, last.EraseIndex)
	assert.True(t, last.EraseSuccess)
	_, stillExists := device.Files[0x1234]
	assert.False(t, stillExists)
}

func TestClientSetTimeRoundTrip(t *testing.T) {
	device := NewStaticDevice(0)
	var events []Event
	transport := NewVirtualTransport(device, nil)
	client := NewClient(transport, func(e Event) { events = append(events, e) })

	client.SetTime(2649980946)
	transport.Pump(client)

	require.Len(t, events, 1)
	assert.Equal(t, EventSetTime, events[0].Kind)
	assert.True(t, events[0].SetTimeOK)
	assert.Equal(t, int64(2649980946), device.ClockPosix)
}

func TestClientDownloadDirectoryRoundTrip(t *testing.T) {
	device := NewStaticDevice(0)
	rec1 := buildEntryRecord(1, 0x0180, 100, 0x78563411)
	rec2 := buildEntryRecord(2, 0x0480, 200, 0x78563413)
	device.Files[0] = buildDirectoryBuffer(t, 0x78563412, rec1, rec2)

	var events []Event
	transport := NewVirtualTransport(device, nil)
	client := NewClient(transport, func(e Event) { events = append(events, e) })

	client.DownloadDirectory()
	transport.Pump(client)

	var gotEntries []directory.Entry
	var finished bool
	for _, ev := range events {
		switch ev.Kind {
		case EventParseDirectoryEntry:
			gotEntries = append(gotEntries, ev.Entry)
		case EventFinishParsingDirectory:
			finished = true
		}
	}
	require.Len(t, gotEntries, 2)
	assert.True(t, finished)
	assert.Equal(t, "0001.fit", client.Filename(gotEntries[0]))
	assert.Equal(t, "0002.fit", client.Filename(gotEntries[1]))
}

func TestClientDownloadFileRoundTrip(t *testing.T) {
	device := NewStaticDevice(0)
	payload := make([]byte, 30)
	for i := range payload {
		payload[i] = byte(i)
	}
	device.Files[9] = payload

	var events []Event
	transport := NewVirtualTransport(device, nil)
	client := NewClient(transport, func(e Event) { events = append(events, e) })

	client.DownloadFile(9)
	transport.Pump(client)

	require.Len(t, events, 1)
	assert.Equal(t, EventDownloadFile, events[0].Kind)
	assert.Equal(t, payload, events[0].FileData)
}
