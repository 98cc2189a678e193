package usbsim

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-avrusbboot/protocol"
	"github.com/moffa90/go-avrusbboot/usb"
)

func openFirst(t *testing.T, bus *Bus) (usb.Handle, usb.DeviceDesc) {
	t.Helper()
	descs, err := bus.Devices()
	require.NoError(t, err)
	require.NotEmpty(t, descs)

	h, err := bus.Open(descs[0])
	require.NoError(t, err)
	return h, descs[0]
}

func TestBusEnumeration(t *testing.T) {
	other := &Device{Vendor: 0x046D, Product: 0xC52B}
	boot := NewBootloader(64)
	bus := NewBus(other, boot)

	descs, err := bus.Devices()
	require.NoError(t, err)
	require.Len(t, descs, 2)

	assert.Equal(t, uint16(0x046D), descs[0].Vendor)
	assert.Equal(t, uint16(protocol.VendorIDShared), descs[1].Vendor)
	assert.Equal(t, uint16(protocol.ProductIDShared), descs[1].Product)
	assert.NotEqual(t, descs[0].Address, descs[1].Address)

	assert.Zero(t, boot.Opens(), "enumeration must not open devices")
}

func TestOpenResolvesStringIndices(t *testing.T) {
	bus := NewBus(NewBootloader(64))
	h, _ := openFirst(t, bus)
	defer h.Close()

	desc := h.Desc()
	assert.Equal(t, uint8(ManufacturerIndex), desc.ManufacturerIndex)
	assert.Equal(t, uint8(ProductIndex), desc.ProductIndex)
}

func TestOpenError(t *testing.T) {
	dev := NewBootloader(64)
	dev.OpenErr = errors.New("access denied")
	bus := NewBus(dev)

	descs, err := bus.Devices()
	require.NoError(t, err)

	_, err = bus.Open(descs[0])
	require.Error(t, err)
	assert.ErrorIs(t, err, usb.ErrOpen)
	assert.Contains(t, err.Error(), "access denied")
}

func TestStringDescriptors(t *testing.T) {
	bus := NewBus(NewBootloader(64))
	h, _ := openFirst(t, bus)
	defer h.Close()

	raw, err := h.StringDescriptor(ManufacturerIndex, protocol.LangIDEnglishUS)
	require.NoError(t, err)
	s, err := usb.DecodeString(raw)
	require.NoError(t, err)
	assert.Equal(t, protocol.Manufacturer, s)

	raw, err = h.StringDescriptor(ProductIndex, protocol.LangIDEnglishUS)
	require.NoError(t, err)
	s, err = usb.DecodeString(raw)
	require.NoError(t, err)
	assert.Equal(t, protocol.Product, s)

	_, err = h.StringDescriptor(9, protocol.LangIDEnglishUS)
	assert.ErrorIs(t, err, ErrUnsupportedRequest)
}

func TestBootloaderRequests(t *testing.T) {
	dev := NewBootloader(16)
	bus := NewBus(dev)
	h, _ := openFirst(t, bus)
	defer h.Close()

	req := protocol.BuildGetPageSizeRequest()
	n, err := h.Control(req.RequestType, req.Request, req.Value, req.Index, req.Data, time.Second)
	require.NoError(t, err)
	size, err := protocol.ParsePageSizeResponse(req.Data, n)
	require.NoError(t, err)
	assert.Equal(t, 16, size)

	page := []byte{0x0C, 0x94, 0x34, 0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	req, err = protocol.BuildWritePageRequest(0x0100, page)
	require.NoError(t, err)
	n, err = h.Control(req.RequestType, req.Request, req.Value, req.Index, req.Data, time.Second)
	require.NoError(t, err)
	assert.Equal(t, len(page), n)

	req = protocol.BuildStartApplicationRequest()
	n, err = h.Control(req.RequestType, req.Request, req.Value, req.Index, req.Data, time.Second)
	require.NoError(t, err)
	assert.Zero(t, n)

	writes := dev.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, uint16(0x0100), writes[0].Address)
	assert.Equal(t, page, writes[0].Data)
	assert.True(t, dev.Started())

	mem := dev.Memory()
	assert.Equal(t, byte(0x0C), mem[0x0100])
	assert.Len(t, mem, 16)

	transfers := dev.Transfers()
	require.Len(t, transfers, 3)
	assert.Equal(t, uint8(protocol.CmdGetPageSize), transfers[0].Request)
	assert.Equal(t, uint8(protocol.CmdWritePage), transfers[1].Request)
	assert.Equal(t, uint8(protocol.CmdStartApplication), transfers[2].Request)
	assert.Equal(t, time.Second, transfers[0].Timeout)
}

func TestRespondOverride(t *testing.T) {
	dev := NewBootloader(64)
	dev.Respond = func(tr Transfer, data []byte) (int, error) {
		return 0, usb.ErrTimeout
	}
	bus := NewBus(dev)
	h, _ := openFirst(t, bus)
	defer h.Close()

	req := protocol.BuildGetPageSizeRequest()
	_, err := h.Control(req.RequestType, req.Request, req.Value, req.Index, req.Data, time.Second)
	assert.ErrorIs(t, err, usb.ErrTimeout)
	assert.Len(t, dev.Transfers(), 1)
}

func TestUnsupportedVendorRequest(t *testing.T) {
	bus := NewBus(NewBootloader(64))
	h, _ := openFirst(t, bus)
	defer h.Close()

	_, err := h.Control(0xC0, 9, 0, 0, make([]byte, 8), time.Second)
	assert.ErrorIs(t, err, ErrUnsupportedRequest)
}

func TestCloseIsIdempotent(t *testing.T) {
	dev := NewBootloader(64)
	bus := NewBus(dev)
	h, _ := openFirst(t, bus)

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
	assert.Equal(t, 1, dev.Opens())
	assert.Equal(t, 1, dev.Closes())

	_, err := h.Control(0xC0, protocol.CmdGetPageSize, 0, 0, make([]byte, 8), time.Second)
	assert.ErrorIs(t, err, usb.ErrClosed)
}
